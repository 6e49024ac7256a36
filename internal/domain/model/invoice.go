package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 確定済みの請求。作成後は変更しない（append-only）。
type Invoice struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Number      string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"number"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}
