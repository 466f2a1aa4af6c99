package repository

import (
	"context"

	"stockfield/internal/domain/model"
)

type UserFilter struct {
	Role   *model.Role
	Q      string
	Limit  int
	Offset int
}

// 保存・取得を約束
// 見つからない場合はErrNotFound
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByDocument(ctx context.Context, document string) (*model.User, error)
	List(ctx context.Context, f UserFilter) ([]model.User, error)
	// ユーザー情報の更新=>アクティブかどうか・ロールの変更・最後のログイン更新など
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, userID string) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID string) error
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
}
