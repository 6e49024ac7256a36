package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateBarcode = errors.New("duplicate barcode")
)

// 商品の永続化（保存・取得）だけを約束。
// 在庫数の変更はInventoryRepository経由のみ。
type ProductRepository interface {
	// 登録順で全件
	ListAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
