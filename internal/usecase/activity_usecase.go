package usecase

import (
	"context"
	"strings"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

// 操作ログの閲覧
type ActivityUsecase struct {
	audit repo.AuditLogRepository
	log   *zap.Logger
}

func NewActivityUsecase(audit repo.AuditLogRepository, log *zap.Logger) *ActivityUsecase {
	return &ActivityUsecase{audit: audit, log: log}
}

type ListActivityInput struct {
	// 管理者だけが他人を指定できる。空なら自分（管理者は全員）。
	UserID       string
	Action       string
	ResourceType string
	Limit        int
	Offset       int
}

func (u *ActivityUsecase) ListActivity(ctx context.Context, actor Actor, in ListActivityInput) ([]model.AuditLog, error) {
	if actor.UserID == "" {
		return nil, newKindError(ErrUnauthorized, "unauthorized")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return nil, errValidation("invalid limit")
	}
	if in.Offset < 0 {
		return nil, errValidation("invalid offset")
	}

	f := repo.AuditLogFilter{Limit: in.Limit, Offset: in.Offset}

	target := strings.TrimSpace(in.UserID)
	switch {
	case !actor.IsAdmin() && target != "" && target != actor.UserID:
		return nil, newKindError(ErrForbidden, "admin only")
	case !actor.IsAdmin():
		f.ActorUserID = &actor.UserID
	case target != "":
		f.ActorUserID = &target
	}

	if in.Action != "" {
		a := model.AuditAction(strings.ToUpper(strings.TrimSpace(in.Action)))
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(strings.ToLower(strings.TrimSpace(in.ResourceType)))
		f.ResourceType = &rt
	}

	logs, err := u.audit.List(ctx, f)
	if err != nil {
		return nil, storageErr(u.log, "activity.list", err)
	}
	return logs, nil
}
