package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 請求明細。
// 確定時点のスナップショットを必ず保存（後で商品価格が変わっても不変）。
type InvoiceItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID           int64           `gorm:"not null;index" json:"invoice_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price_snapshot"`
	Quantity            decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	TotalPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}
