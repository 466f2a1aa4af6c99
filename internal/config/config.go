package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Configはアプリ全体の設定
type Config struct {
	Port string `envconfig:"PORT" default:"8080"` // サーバーポート

	// DATABASE_URL があれば最優先
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"stockfield"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"` // JWT署名シークレット
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`

	GoEnv string `envconfig:"GO_ENV" default:"dev"` // dev/prod
	FEURL string `envconfig:"FE_URL"`                // フロントURL（CORS）

	// 期限アラートの日数
	AlertWindowDays int `envconfig:"ALERT_WINDOW_DAYS" default:"7"`
	// version競合時の再試行回数
	MaxUpdateRetries int `envconfig:"MAX_UPDATE_RETRIES" default:"3"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"` // json/console

	// 起動時に作る管理者。ADMIN_EMAILが空なら作らない。
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminDocument string `envconfig:"ADMIN_DOCUMENT" default:"00000000000000"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrador"`
}

// Loadは.env（あれば）と環境変数を読む
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		// 無ければ環境変数だけで動かす
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AlertWindowDays <= 0 {
		return fmt.Errorf("ALERT_WINDOW_DAYS must be positive: %d", c.AlertWindowDays)
	}
	if c.MaxUpdateRetries <= 0 {
		return fmt.Errorf("MAX_UPDATE_RETRIES must be positive: %d", c.MaxUpdateRetries)
	}
	if c.AdminEmail != "" && c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// 接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
