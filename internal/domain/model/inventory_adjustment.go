package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 管理画面からの在庫調整履歴（差分と理由を残す）
type InventoryAdjustment struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Delta     decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"delta"`
	Reason    string          `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
