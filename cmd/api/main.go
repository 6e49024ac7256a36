package main

import (
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func newLogger(goEnv string) (*zap.Logger, error) {
	if goEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		zap.L().Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InventoryAdjustment{},
	); err != nil {
		zap.L().Fatal("migrate failed", zap.Error(err))
	}

	//初期データ（空のときだけ）
	if err := db.SeedProducts(gormDB); err != nil {
		zap.L().Fatal("seed failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	invoiceRepo := infraRepo.NewInvoiceGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo)
	checkoutUC := usecase.NewCheckoutUsecase(productRepo, txManager)
	invoiceUC := usecase.NewInvoiceUsecase(invoiceRepo)

	//Handler生成
	handlers := server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Invoice:      handler.NewInvoiceHandler(invoiceUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	e := server.New(cfg.FEURL, handlers)
	if err := server.Start(e, addr); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
