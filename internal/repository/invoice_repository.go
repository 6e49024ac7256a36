package repository

import (
	"app/internal/domain/model"
	"context"
)

// 請求はappend-only（更新・削除なし）。
type InvoiceRepository interface {
	// 明細ごと保存して、採番済みのInvoiceを返す
	Create(ctx context.Context, inv model.Invoice) (model.Invoice, error)

	// 明細と商品参照を解決して返す
	List(ctx context.Context) ([]model.Invoice, error)
	FindByID(ctx context.Context, id int64) (model.Invoice, error)
}
