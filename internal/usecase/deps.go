package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 入力構造体の検証
type StructValidator interface {
	Struct(s interface{}) error
}

// version競合ならtx全体をやり直す。使い切ったらErrConflictingUpdate。
func withRetry(ctx context.Context, tm repo.TransactionManager, attempts int, log *zap.Logger, op string, fn func(r repo.TxRepos) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	for i := 1; i <= attempts; i++ {
		err := tm.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrVersionConflict) {
			return err
		}
		log.Warn("version conflict, retrying",
			zap.String("op", op),
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return newKindError(ErrConflictingUpdate, "conflicting update, try again")
}

// repoのエラーを種類に寄せる。HTTPErrorはそのまま。
func storageErr(log *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	if errors.Is(err, repo.ErrVersionConflict) {
		return err
	}
	log.Error("storage error", zap.String("op", op), zap.Error(err))
	return errStorage()
}

// 監査ログの前後をJSONにする
func toJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func auditLog(now time.Time, actor string, action model.AuditAction, rt model.AuditResourceType, resourceID string, before, after interface{}) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: rt,
		ResourceID:   resourceID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    now,
	}
}

func strPtr(s string) *string {
	return &s
}

// 操作しているユーザー
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// 本人か管理者だけ
func (a Actor) CanAccess(ownerID string) bool {
	return a.UserID != "" && (a.UserID == ownerID || a.IsAdmin())
}
