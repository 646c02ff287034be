package main

import (
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/payments"
	"shop/internal/server"
	"shop/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load("../.env"); err != nil {
		log.Infof(".env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Variant{},
		&model.Cart{},
		&model.CartItem{},
		&model.Discount{},
		&model.Order{},
		&model.OrderLine{},
		&model.OrderEvent{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//決済プロバイダ（キー未設定ならnil＝hosted決済は501）
	var provider payments.Provider
	if cfg.StripeSecretKey != "" {
		sp, err := payments.NewStripeProvider(payments.StripeProviderConfig{APIKey: cfg.StripeSecretKey})
		if err != nil {
			log.Fatalf("stripe: %v", err)
		}
		provider = sp
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//Usecase生成
	checkoutUC := usecase.NewCheckoutUsecase(txm, usecase.CheckoutProviderConfig{
		Provider:       provider,
		PublishableKey: cfg.StripePublishableKey,
		Currency:       cfg.Currency,
		SuccessURL:     cfg.CheckoutSuccessURL,
		CancelURL:      cfg.CheckoutCancelURL,
		Timeout:        10 * time.Second,
	})
	orderUC := usecase.NewOrderUsecase(txm)
	reconcileUC := usecase.NewReconcileUsecase(txm, provider)
	cartUC := usecase.NewCartUsecase(txm)
	adminAuthUC := usecase.NewAdminAuthUsecase(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret)
	adminDiscountUC := usecase.NewAdminDiscountUsecase(txm)
	adminAuditUC := usecase.NewAdminAuditUsecase(auditRepo)

	//Handler生成
	h := server.Handlers{
		Checkout: handler.NewCheckoutHandler(checkoutUC, reconcileUC),
		Order:    handler.NewOrderHandler(orderUC),
		Webhook:  handler.NewWebhookHandler(reconcileUC, cfg.StripeWebhookSecret),
		Cart:     handler.NewCartHandler(cartUC),
		Admin:    handler.NewAdminHandler(adminAuthUC, adminDiscountUC, adminAuditUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, cfg, h); err != nil {
		log.Fatalf("server: %v", err)
	}
}
