package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockfield/internal/domain/alert"
	"stockfield/internal/domain/model"
	"stockfield/internal/repository"
	"stockfield/internal/usecase"

	"go.uber.org/zap"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// token 形（JwtAccessToken相当）
type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

// handlerがJSONにして返す
// ログイン時点のアラートも一緒に返す
type LoginOutput struct {
	User      model.User           `json:"user"`
	Token     JwtAccessToken       `json:"token"`
	Sweep     *usecase.SweepResult `json:"sweep,omitempty"`
	Dashboard *alert.Dashboard     `json:"dashboard,omitempty"`
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 停止済みユーザー
var ErrUserInactive = errors.New("user is inactive")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID string, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// ログイン時に期限チェックをやり直す
type AlertRefresher interface {
	SweepExpiry(ctx context.Context, actorID string) (usecase.SweepResult, error)
	Dashboard(ctx context.Context, ownerID string) (alert.Dashboard, error)
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	alerts   AlertRefresher
	clock    Clock
	log      *zap.Logger
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	alerts AlertRefresher,
	clock Clock,
	log *zap.Logger,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		alerts:   alerts,
		clock:    clock,
		log:      log,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return out, ErrInvalidCredentials
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, ErrUserInactive
	}

	//AccessToken発行
	now := u.clock.Now()
	accessToken, accessExp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return out, err
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, err
	}

	out.User = *user
	out.Token = JwtAccessToken{
		AccessToken:  accessToken,
		ExpiresIn:    int(accessExp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}

	// 期限チェックの失敗ではログインを失敗にしない
	sweep, err := u.alerts.SweepExpiry(ctx, user.ID)
	if err != nil {
		u.log.Error("login sweep failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		out.Sweep = &sweep
	}

	dash, err := u.alerts.Dashboard(ctx, user.ID)
	if err != nil {
		u.log.Error("login dashboard failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		out.Dashboard = &dash
	}

	return out, nil
}
