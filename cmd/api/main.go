package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockfield/internal/config"
	"stockfield/internal/handler"
	"stockfield/internal/infra/db"
	infraRepo "stockfield/internal/infra/repository"
	"stockfield/internal/logger"
	"stockfield/internal/server"
	"stockfield/internal/usecase"
	auth "stockfield/internal/usecase/auth_usecase"
	"stockfield/internal/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	supplierRepo := infraRepo.NewSupplierGormRepository(gormDB)
	movementRepo := infraRepo.NewMovementGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	tm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	v := validator.New()

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	alertUC := usecase.NewAlertUsecase(tm, productRepo, clock, log, cfg.AlertWindowDays, cfg.MaxUpdateRetries)
	productUC := usecase.NewProductUsecase(tm, productRepo, clock, idGen, v, log, cfg.AlertWindowDays, cfg.MaxUpdateRetries)
	supplierUC := usecase.NewSupplierUsecase(tm, supplierRepo, clock, idGen, v, log)
	movementUC := usecase.NewMovementUsecase(tm, movementRepo, clock, idGen, v, log, cfg.AlertWindowDays, cfg.MaxUpdateRetries)
	activityUC := usecase.NewActivityUsecase(auditRepo, log)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, productRepo, supplierRepo, movementRepo, auditRepo, hasher, clock, idGen, v, log)
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, idGen, clock, v)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, alertUC, clock, log)

	//管理者の初期作成
	created, err := auth.EnsureAdmin(context.Background(), userRepo, hasher, idGen, clock, auth.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Document: cfg.AdminDocument,
		Name:     cfg.AdminName,
	})
	if err != nil {
		return err
	}
	if created {
		log.Info("admin user created", zap.String("email", cfg.AdminEmail))
	}

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Product:      handler.NewProductHandler(productUC),
		Supplier:     handler.NewSupplierHandler(supplierUC),
		Movement:     handler.NewMovementHandler(movementUC),
		Alert:        handler.NewAlertHandler(alertUC),
		Activity:     handler.NewActivityHandler(activityUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, supplierUC),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC),
	}

	//Server起動
	e := server.New(cfg, log, userRepo, h)
	return server.Start(e, cfg.Addr(), log)
}
