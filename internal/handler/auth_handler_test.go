package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockfield/internal/domain/model"
	"stockfield/internal/handler"
	"stockfield/internal/repository"
	auth "stockfield/internal/usecase/auth_usecase"
	"stockfield/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// emailで引けるユーザーだけを持つ
type emailOnlyUsers struct {
	repository.UserRepository
	byEmail map[string]*model.User
	created []*model.User
}

func (r *emailOnlyUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *emailOnlyUsers) FindByDocument(ctx context.Context, document string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (r *emailOnlyUsers) Create(ctx context.Context, u *model.User) error {
	r.created = append(r.created, u)
	return nil
}

type seqID struct{}

func (seqID) NewID() string { return "u-new" }

func newAuthEcho(users *emailOnlyUsers) *echo.Echo {
	clock := fixedClock{now: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	registerUC := auth.NewRegisterUserUsecase(users, auth.NewBcryptPasswordHasher(4), seqID{}, clock, validator.New())
	loginUC := auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer("secret", time.Minute), nil, clock, zap.NewNop())

	e := echo.New()
	handler.NewAuthHandler(registerUC, loginUC).RegisterRoutes(e)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_Register(t *testing.T) {
	users := &emailOnlyUsers{byEmail: map[string]*model.User{
		"taken@farm.com": {ID: "u-1", Email: "taken@farm.com"},
	}}
	e := newAuthEcho(users)

	rec := postJSON(e, "/auth/register", `{"document":"12345678901","name":"Ana","email":"ana@farm.com","password":"colheita-2026"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.Len(t, users.created, 1)

	rec = postJSON(e, "/auth/register", `{"document":"12345678901","name":"Ana","email":"taken@farm.com","password":"colheita-2026"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postJSON(e, "/auth/register", `{"document":"123","name":"Ana","email":"x@farm.com","password":"colheita-2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"document must be at least 11"}`, rec.Body.String())

	rec = postJSON(e, "/auth/register", `{"document":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	e := newAuthEcho(&emailOnlyUsers{byEmail: map[string]*model.User{}})

	rec := postJSON(e, "/auth/login", `{"email":"nobody@farm.com","password":"whatever-1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
}
