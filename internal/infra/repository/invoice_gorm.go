package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type InvoiceGormRepository struct {
	db *gorm.DB
}

func NewInvoiceGormRepository(db *gorm.DB) *InvoiceGormRepository {
	return &InvoiceGormRepository{db: db}
}

// 明細ごと保存（gormのassociationで1回のCreate）。
// 商品は読み取り参照なのでOmitして触らない。
func (r *InvoiceGormRepository) Create(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	if err := r.db.WithContext(ctx).Omit("Items.Product").Create(&inv).Error; err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}

// 明細と商品参照を解決して新しい順に返す
func (r *InvoiceGormRepository) List(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Order("id desc").
		Find(&invoices).Error
	if err != nil {
		return []model.Invoice{}, err
	}
	return invoices, nil
}

func (r *InvoiceGormRepository) FindByID(ctx context.Context, id int64) (model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Invoice{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}
