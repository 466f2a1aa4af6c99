package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockfield/internal/domain/alert"
	"stockfield/internal/domain/model"
	"stockfield/internal/repository"
	"stockfield/internal/usecase"
	auth "stockfield/internal/usecase/auth_usecase"
	"stockfield/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByDocument(ctx context.Context, document string) (*model.User, error) {
	args := m.Called(ctx, document)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, f repository.UserFilter) ([]model.User, error) {
	args := m.Called(ctx, f)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(map[model.Role]int64)
	return r, args.Error(1)
}

// =====================
// Mock: AlertRefresher
// =====================

type MockAlertRefresher struct {
	mock.Mock
}

func (m *MockAlertRefresher) SweepExpiry(ctx context.Context, actorID string) (usecase.SweepResult, error) {
	args := m.Called(ctx, actorID)
	r, _ := args.Get(0).(usecase.SweepResult)
	return r, args.Error(1)
}

func (m *MockAlertRefresher) Dashboard(ctx context.Context, ownerID string) (alert.Dashboard, error) {
	args := m.Called(ctx, ownerID)
	d, _ := args.Get(0).(alert.Dashboard)
	return d, args.Error(1)
}

// =====================
// helper
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedID struct{ id string }

func (g fixedID) NewID() string { return g.id }

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

const testSecret = "test-secret"

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func newRegisterUC(repo *MockUserRepository) *auth.RegisterUserUsecase {
	return auth.NewRegisterUserUsecase(repo, auth.NewBcryptPasswordHasher(bcrypt.MinCost), fixedID{id: "u-new"}, fixedClock{now: testNow}, validator.New())
}

func newLoginUC(repo *MockUserRepository, alerts *MockAlertRefresher) *auth.LoginUsecase {
	return auth.NewLoginUsecase(repo, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(testSecret, 15*time.Minute), alerts, fixedClock{now: testNow}, zap.NewNop())
}

func validRegister() auth.RegisterUserInput {
	return auth.RegisterUserInput{
		Document: "12345678000199",
		Name:     " Fazenda Boa Vista ",
		Email:    " Contato@BoaVista.com ",
		Password: "colheita-2026",
	}
}

// =====================
// Register
// =====================

func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "contato@boavista.com").Return(nil, repository.ErrNotFound)
	repo.On("FindByDocument", mock.Anything, "12345678000199").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == "u-new" && u.Role == model.RoleRegular && u.IsActive && u.PasswordHash != "colheita-2026"
	})).Return(nil)

	out, err := newRegisterUC(repo).Execute(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, "contato@boavista.com", out.User.Email)
	assert.Equal(t, "Fazenda Boa Vista", out.User.Name)
	assert.Equal(t, testNow, out.User.CreatedAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(out.User.PasswordHash), []byte("colheita-2026")))

	repo.AssertExpectations(t)
}

func TestRegister_Duplicates(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "contato@boavista.com").Return(&model.User{ID: "u-1"}, nil)

		_, err := newRegisterUC(repo).Execute(context.Background(), validRegister())
		assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("document", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "contato@boavista.com").Return(nil, repository.ErrNotFound)
		repo.On("FindByDocument", mock.Anything, "12345678000199").Return(&model.User{ID: "u-1"}, nil)

		_, err := newRegisterUC(repo).Execute(context.Background(), validRegister())
		assert.ErrorIs(t, err, auth.ErrDocumentAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRegister_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		modify func(in *auth.RegisterUserInput)
		want   error
	}{
		{"bad email", func(in *auth.RegisterUserInput) { in.Email = "not-an-email" }, auth.ErrInvalidInput},
		{"short password", func(in *auth.RegisterUserInput) { in.Password = "short" }, auth.ErrInvalidInput},
		{"short document", func(in *auth.RegisterUserInput) { in.Document = "123" }, auth.ErrInvalidInput},
		{"missing name", func(in *auth.RegisterUserInput) { in.Name = "   " }, auth.ErrInvalidInput},
		{"weak password", func(in *auth.RegisterUserInput) { in.Password = "Password123" }, auth.ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			in := validRegister()
			tc.modify(&in)

			_, err := newRegisterUC(repo).Execute(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
			repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		})
	}
}

// =====================
// Login
// =====================

func activeUser(t *testing.T) *model.User {
	return &model.User{
		ID:           "u-1",
		Email:        "ana@farm.com",
		PasswordHash: mustHash(t, "correct-pass"),
		Role:         model.RoleRegular,
		TokenVersion: 4,
		IsActive:     true,
	}
}

// ログインで期限チェックとダッシュボードが走る
func TestLogin_RunsSweepAndDashboard(t *testing.T) {
	repo := new(MockUserRepository)
	alerts := new(MockAlertRefresher)

	repo.On("FindByEmail", mock.Anything, "ana@farm.com").Return(activeUser(t), nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.LastLoginAt != nil && u.LastLoginAt.Equal(testNow)
	})).Return(nil)
	alerts.On("SweepExpiry", mock.Anything, "u-1").Return(usecase.SweepResult{CheckedAt: "2026-03-10", TotalAlerts: 2}, nil)
	alerts.On("Dashboard", mock.Anything, "u-1").Return(alert.Dashboard{Stock: alert.StockSummary{TotalAlerts: 1}}, nil)

	out, err := newLoginUC(repo, alerts).Execute(context.Background(), auth.LoginInput{Email: " ANA@farm.com ", Password: "correct-pass"})
	require.NoError(t, err)

	require.NotNil(t, out.Sweep)
	assert.Equal(t, 2, out.Sweep.TotalAlerts)
	require.NotNil(t, out.Dashboard)
	assert.Equal(t, 1, out.Dashboard.Stock.TotalAlerts)
	assert.Equal(t, 900, out.Token.ExpiresIn)
	assert.Equal(t, 4, out.Token.TokenVersion)

	// トークンのclaimsを確認
	tok, err := jwt.Parse(out.Token.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "u-1", claims["sub"])
	assert.Equal(t, "regular", claims["role"])
	assert.Equal(t, float64(4), claims["tv"])

	repo.AssertExpectations(t)
	alerts.AssertExpectations(t)
}

// 期限チェックが失敗してもログインは成功
func TestLogin_SweepFailureDoesNotFailLogin(t *testing.T) {
	repo := new(MockUserRepository)
	alerts := new(MockAlertRefresher)

	repo.On("FindByEmail", mock.Anything, "ana@farm.com").Return(activeUser(t), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	alerts.On("SweepExpiry", mock.Anything, "u-1").Return(usecase.SweepResult{}, errors.New("db down"))
	alerts.On("Dashboard", mock.Anything, "u-1").Return(alert.Dashboard{}, errors.New("db down"))

	out, err := newLoginUC(repo, alerts).Execute(context.Background(), auth.LoginInput{Email: "ana@farm.com", Password: "correct-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token.AccessToken)
	assert.Nil(t, out.Sweep)
	assert.Nil(t, out.Dashboard)
}

func TestLogin_Rejects(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		alerts := new(MockAlertRefresher)
		repo.On("FindByEmail", mock.Anything, "x@farm.com").Return(nil, repository.ErrNotFound)

		_, err := newLoginUC(repo, alerts).Execute(context.Background(), auth.LoginInput{Email: "x@farm.com", Password: "whatever1"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		alerts.AssertNotCalled(t, "SweepExpiry", mock.Anything, mock.Anything)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		alerts := new(MockAlertRefresher)
		repo.On("FindByEmail", mock.Anything, "ana@farm.com").Return(activeUser(t), nil)

		_, err := newLoginUC(repo, alerts).Execute(context.Background(), auth.LoginInput{Email: "ana@farm.com", Password: "wrong-pass"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("inactive", func(t *testing.T) {
		repo := new(MockUserRepository)
		alerts := new(MockAlertRefresher)
		u := activeUser(t)
		u.IsActive = false
		repo.On("FindByEmail", mock.Anything, "ana@farm.com").Return(u, nil)

		_, err := newLoginUC(repo, alerts).Execute(context.Background(), auth.LoginInput{Email: "ana@farm.com", Password: "correct-pass"})
		assert.ErrorIs(t, err, auth.ErrUserInactive)
	})

	t.Run("empty", func(t *testing.T) {
		repo := new(MockUserRepository)
		_, err := newLoginUC(repo, new(MockAlertRefresher)).Execute(context.Background(), auth.LoginInput{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

// =====================
// EnsureAdmin
// =====================

func TestEnsureAdmin(t *testing.T) {
	seed := auth.AdminSeed{Email: "Root@Farm.com", Password: "admin-pass-1", Document: "00000000000000", Name: "Admin"}
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)

	t.Run("creates when missing", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "root@farm.com").Return(nil, repository.ErrNotFound)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Role == model.RoleAdmin && u.Email == "root@farm.com"
		})).Return(nil)

		created, err := auth.EnsureAdmin(context.Background(), repo, hasher, fixedID{id: "a-1"}, fixedClock{now: testNow}, seed)
		require.NoError(t, err)
		assert.True(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("keeps existing", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "root@farm.com").Return(&model.User{ID: "a-1"}, nil)

		created, err := auth.EnsureAdmin(context.Background(), repo, hasher, fixedID{id: "a-2"}, fixedClock{now: testNow}, seed)
		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("disabled without email", func(t *testing.T) {
		repo := new(MockUserRepository)
		created, err := auth.EnsureAdmin(context.Background(), repo, hasher, fixedID{id: "a-3"}, fixedClock{now: testNow}, auth.AdminSeed{})
		require.NoError(t, err)
		assert.False(t, created)
	})
}

var _ repository.UserRepository = (*MockUserRepository)(nil)
var _ auth.AlertRefresher = (*MockAlertRefresher)(nil)
