package db

import (
	"fmt"
	"os"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect() (*gorm.DB, error) {
	// DATABASE_URL があれば最優先で使う
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	pass := getenv("POSTGRES_PASSWORD", "postgres")
	name := getenv("POSTGRES_DB", "app")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, ssl,
	)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// SeedProducts は商品テーブルが空のときだけ初期データを入れる。
func SeedProducts(gormDB *gorm.DB) error {
	var count int64
	if err := gormDB.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seeds := []model.Product{
		{Barcode: "111", Name: "Chocolate Cake", Type: model.PricingFixed, Price: decimal.NewFromInt(1500), StockQty: decimal.NewFromInt(10)},
		{Barcode: "222", Name: "Ribbon Cake", Type: model.PricingWeight, PricePerKg: decimal.NewFromInt(2500), StockQty: decimal.NewFromInt(20)},
		{Barcode: "333", Name: "Cup Cake", Type: model.PricingFixed, Price: decimal.NewFromInt(300), StockQty: decimal.NewFromInt(25)},
	}
	return gormDB.Create(&seeds).Error
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
