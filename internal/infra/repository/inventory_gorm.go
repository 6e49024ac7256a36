package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足りるときだけ減らす。
// チェックと減算を1本の条件付きUPDATEにして、同時実行でも二重に通らないようにする。
func (r *InventoryGormRepository) DecrementStock(ctx context.Context, barcode string, qty decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("barcode = ? AND stock_qty >= ?", barcode, qty).
		Update("stock_qty", gorm.Expr("stock_qty - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// 0件は「在庫不足」か「バーコード不明」かをここで切り分ける
		var p model.Product
		err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, repo.ErrNotFound
		}
		if err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// 在庫戻し（確定失敗時の補償）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, barcode string, qty decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("barcode = ?", barcode).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_qty", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
