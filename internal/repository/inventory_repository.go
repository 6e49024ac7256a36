package repository

import (
	"app/internal/domain/model"
	"context"

	"github.com/shopspring/decimal"
)

// 在庫変更の唯一の入り口。
type InventoryRepository interface {
	// 在庫が足りるときだけ減算（チェックと更新は1回の操作で行う）。
	// falseは在庫不足。バーコード不明はErrNotFound。
	DecrementStock(ctx context.Context, barcode string, qty decimal.Decimal) (bool, error)

	// 在庫戻し（確定失敗時の補償など）
	IncreaseStock(ctx context.Context, barcode string, qty decimal.Decimal) error

	// 在庫の現在値を設定（管理用）
	SetStock(ctx context.Context, productID int64, newStock decimal.Decimal) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
