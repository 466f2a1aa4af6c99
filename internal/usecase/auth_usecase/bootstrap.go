package auth

import (
	"context"
	"errors"
	"strings"

	"stockfield/internal/domain/model"
	"stockfield/internal/repository"
)

type AdminSeed struct {
	Email    string
	Password string
	Document string
	Name     string
}

// EnsureAdmin は管理者が居なければ作る。既に同じemailが居れば何もしない。
// 作成したらtrue。
func EnsureAdmin(ctx context.Context, users repository.UserRepository, hasher PasswordHasher, idGen IDGenerator, clock Clock, seed AdminSeed) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" {
		return false, nil
	}

	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hashed, err := hasher.Hash(seed.Password)
	if err != nil {
		return false, err
	}

	now := clock.Now()
	admin := &model.User{
		ID:           idGen.NewID(),
		Document:     strings.TrimSpace(seed.Document),
		Name:         strings.TrimSpace(seed.Name),
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}
