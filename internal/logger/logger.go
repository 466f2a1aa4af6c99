package logger

import (
	"strings"

	"stockfield/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 設定からzapのロガーを作る。
// 本番はjson、開発はconsoleが既定。
func New(cfg config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	if enc := strings.ToLower(strings.TrimSpace(cfg.LogEncoding)); enc == "json" || enc == "console" {
		zc.Encoding = enc
	}

	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}
