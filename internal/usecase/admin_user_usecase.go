package usecase

import (
	"context"
	"errors"
	"strings"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type AdminUserUsecase struct {
	users     repo.UserRepository
	products  repo.ProductRepository
	suppliers repo.SupplierRepository
	movements repo.MovementRepository
	audit     repo.AuditLogRepository
	hasher    PasswordHasher
	clock     Clock
	idGen     IDGenerator
	validator StructValidator
	log       *zap.Logger
}

// DI
func NewAdminUserUsecase(
	users repo.UserRepository,
	products repo.ProductRepository,
	suppliers repo.SupplierRepository,
	movements repo.MovementRepository,
	audit repo.AuditLogRepository,
	hasher PasswordHasher,
	clock Clock,
	idGen IDGenerator,
	validator StructValidator,
	log *zap.Logger,
) *AdminUserUsecase {
	return &AdminUserUsecase{
		users:     users,
		products:  products,
		suppliers: suppliers,
		movements: movements,
		audit:     audit,
		hasher:    hasher,
		clock:     clock,
		idGen:     idGen,
		validator: validator,
		log:       log,
	}
}

type CreateUserInput struct {
	Document string `json:"document" validate:"required,min=11,max=18"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,role"`
}

// 管理者の部分更新。nilの項目は変更しない。
type UserPatch struct {
	Document *string `json:"document" validate:"omitempty,min=11,max=18"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,role"`
	IsActive *bool   `json:"is_active"`
}

func (p UserPatch) IsEmpty() bool {
	return p.Document == nil && p.Name == nil && p.Email == nil && p.Password == nil && p.Role == nil && p.IsActive == nil
}

type ForceLogoutResponse struct {
	UserID          string `json:"user_id"`
	NewTokenVersion int    `json:"new_token_version"`
}

type ListUsersInput struct {
	Role   string
	Q      string
	Limit  int
	Offset int
}

func (u *AdminUserUsecase) ListUsers(ctx context.Context, in ListUsersInput) ([]model.User, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, errValidation("invalid limit")
	}
	if in.Offset < 0 {
		return nil, errValidation("invalid offset")
	}
	f := repo.UserFilter{Q: strings.TrimSpace(in.Q), Limit: in.Limit, Offset: in.Offset}
	if in.Role != "" {
		role, err := model.ParseRole(in.Role)
		if err != nil {
			return nil, errValidation("invalid role")
		}
		f.Role = &role
	}

	users, err := u.users.List(ctx, f)
	if err != nil {
		return nil, storageErr(u.log, "user.list", err)
	}
	return users, nil
}

func (u *AdminUserUsecase) GetUser(ctx context.Context, userID string) (model.User, error) {
	user, err := u.find(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	return *user, nil
}

func (u *AdminUserUsecase) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (model.User, error) {
	if err := u.validator.Struct(in); err != nil {
		return model.User{}, errValidation(err.Error())
	}
	role := model.RoleRegular
	if in.Role != "" {
		r, err := model.ParseRole(in.Role)
		if err != nil {
			return model.User{}, errValidation("invalid role")
		}
		role = r
	}

	email := normalizeEmail(in.Email)
	document := strings.TrimSpace(in.Document)
	if err := u.ensureUnique(ctx, "", email, document); err != nil {
		return model.User{}, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		u.log.Error("hash password", zap.Error(err))
		return model.User{}, newKindError(ErrStorageUnavailable, "internal error")
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.idGen.NewID(),
		Document:     document,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return model.User{}, storageErr(u.log, "user.create", err)
	}
	u.record(ctx, actor, model.AuditActionCreateUser, user.ID, nil, user)
	return *user, nil
}

// UpdateUser はパッチを検証してから反映する。
// ロール・パスワード・有効状態が変わったら既存のトークンを無効にする。
func (u *AdminUserUsecase) UpdateUser(ctx context.Context, actor Actor, userID string, patch UserPatch) (model.User, error) {
	if patch.IsEmpty() {
		return model.User{}, errValidation("nothing to update")
	}
	if err := u.validator.Struct(patch); err != nil {
		return model.User{}, errValidation(err.Error())
	}

	user, err := u.find(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	before := *user

	var email, document string
	if patch.Email != nil {
		email = normalizeEmail(*patch.Email)
	}
	if patch.Document != nil {
		document = strings.TrimSpace(*patch.Document)
	}
	if err := u.ensureUnique(ctx, user.ID, email, document); err != nil {
		return model.User{}, err
	}

	revoke := false
	if patch.Role != nil {
		role, err := model.ParseRole(*patch.Role)
		if err != nil {
			return model.User{}, errValidation("invalid role")
		}
		if user.ID == actor.UserID && role != model.RoleAdmin {
			return model.User{}, newKindError(ErrForbidden, "cannot demote yourself")
		}
		revoke = revoke || role != user.Role
		user.Role = role
	}
	if patch.IsActive != nil {
		if user.ID == actor.UserID && !*patch.IsActive {
			return model.User{}, newKindError(ErrForbidden, "cannot deactivate yourself")
		}
		revoke = revoke || *patch.IsActive != user.IsActive
		user.IsActive = *patch.IsActive
	}
	if patch.Password != nil {
		hashed, err := u.hasher.Hash(*patch.Password)
		if err != nil {
			u.log.Error("hash password", zap.Error(err))
			return model.User{}, newKindError(ErrStorageUnavailable, "internal error")
		}
		user.PasswordHash = hashed
		revoke = true
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if email != "" {
		user.Email = email
	}
	if document != "" {
		user.Document = document
	}
	if revoke {
		user.TokenVersion++
	}
	user.UpdatedAt = u.clock.Now()

	if err := u.users.Update(ctx, user); err != nil {
		return model.User{}, storageErr(u.log, "user.update", err)
	}
	u.record(ctx, actor, model.AuditActionUpdateUser, user.ID, before, user)
	return *user, nil
}

// 自分自身と、商品を持っているユーザーは削除できない
func (u *AdminUserUsecase) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if userID == actor.UserID {
		return newKindError(ErrForbidden, "cannot delete yourself")
	}
	user, err := u.find(ctx, userID)
	if err != nil {
		return err
	}

	n, err := u.products.CountByOwner(ctx, user.ID)
	if err != nil {
		return storageErr(u.log, "user.count_products", err)
	}
	if n > 0 {
		return newKindError(ErrInvalidReference, "user still owns products")
	}

	if err := u.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound("user")
		}
		return storageErr(u.log, "user.delete", err)
	}
	u.record(ctx, actor, model.AuditActionDeleteUser, user.ID, user, nil)
	return nil
}

// token_versionを上げて発行済みトークンを無効にする
func (u *AdminUserUsecase) ForceLogout(ctx context.Context, actor Actor, userID string) (ForceLogoutResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return ForceLogoutResponse{}, errValidation("invalid user_id")
	}

	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ForceLogoutResponse{}, errNotFound("user")
		}
		return ForceLogoutResponse{}, storageErr(u.log, "user.force_logout", err)
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.find(ctx, userID)
	if err != nil {
		return ForceLogoutResponse{}, err
	}
	u.log.Info("force logout", zap.String("user_id", user.ID), zap.String("by", actor.UserID))

	return ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

type SystemStats struct {
	UsersByRole      map[model.Role]int64          `json:"users_by_role"`
	ProductsByStatus map[model.ProductStatus]int64 `json:"products_by_status"`
	Suppliers        int64                         `json:"suppliers"`
	EntryMovements   int64                         `json:"entry_movements"`
	ExitMovements    int64                         `json:"exit_movements"`
}

func (u *AdminUserUsecase) Statistics(ctx context.Context) (SystemStats, error) {
	var out SystemStats
	var err error

	if out.UsersByRole, err = u.users.CountByRole(ctx); err != nil {
		return SystemStats{}, storageErr(u.log, "stats.users", err)
	}
	if out.ProductsByStatus, err = u.products.CountByStatus(ctx); err != nil {
		return SystemStats{}, storageErr(u.log, "stats.products", err)
	}
	if out.Suppliers, err = u.suppliers.Count(ctx); err != nil {
		return SystemStats{}, storageErr(u.log, "stats.suppliers", err)
	}
	if out.EntryMovements, err = u.movements.CountByType(ctx, model.MovementEntry); err != nil {
		return SystemStats{}, storageErr(u.log, "stats.entries", err)
	}
	if out.ExitMovements, err = u.movements.CountByType(ctx, model.MovementExit); err != nil {
		return SystemStats{}, storageErr(u.log, "stats.exits", err)
	}
	return out, nil
}

func (u *AdminUserUsecase) find(ctx context.Context, userID string) (*model.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errValidation("invalid user_id")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errNotFound("user")
	}
	if err != nil {
		return nil, storageErr(u.log, "user.find", err)
	}
	return user, nil
}

// email/documentが他のユーザーと重複しないか。空の値は見ない。
func (u *AdminUserUsecase) ensureUnique(ctx context.Context, selfID, email, document string) error {
	if email != "" {
		other, err := u.users.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return storageErr(u.log, "user.find_email", err)
		}
		if err == nil && other.ID != selfID {
			return newKindError(ErrConflict, "email already exists")
		}
	}
	if document != "" {
		other, err := u.users.FindByDocument(ctx, document)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return storageErr(u.log, "user.find_document", err)
		}
		if err == nil && other.ID != selfID {
			return newKindError(ErrConflict, "document already exists")
		}
	}
	return nil
}

// 操作ログの失敗は本処理を失敗にしない
func (u *AdminUserUsecase) record(ctx context.Context, actor Actor, action model.AuditAction, userID string, before, after interface{}) {
	err := u.audit.Create(ctx, auditLog(u.clock.Now(), actor.UserID, action, model.AuditResourceUser, userID, before, after))
	if err != nil {
		u.log.Error("audit log", zap.String("action", string(action)), zap.Error(err))
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
