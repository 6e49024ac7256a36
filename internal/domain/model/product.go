package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PricingType string

const (
	// 単品価格
	PricingFixed PricingType = "fixed"
	// kg単価×数量（数量は小数可）
	PricingWeight PricingType = "weight"
)

// バーコードは外部向けの一意キー（内部IDとは別）
type Product struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Barcode    string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"barcode"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Type       PricingType     `gorm:"type:varchar(10);not null" json:"type"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	PricePerKg decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price_per_kg"`
	StockQty   decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"stock_qty"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// UnitPrice は請求に使う単価（fixed=Price / weight=PricePerKg）
func (p Product) UnitPrice() decimal.Decimal {
	if p.Type == PricingWeight {
		return p.PricePerKg
	}
	return p.Price
}
