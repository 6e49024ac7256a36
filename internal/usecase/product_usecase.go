package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
	}
}

// 登録順で全件（レジ画面・管理画面の一覧）
func (u *ProductUsecase) ListProducts(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.ListAll(ctx)
	if err != nil {
		return []model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// バーコード検索（スキャナ入力）
func (u *ProductUsecase) GetProductByBarcode(ctx context.Context, barcode string) (model.Product, error) {
	if strings.TrimSpace(barcode) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "barcode required")
	}

	p, err := u.productRepo.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 直接の在庫減算（レジ外の払い出し用）。会計と同じ原子的な減算を通す。
func (u *ProductUsecase) ReduceStock(ctx context.Context, barcode string, qty decimal.Decimal) error {
	if strings.TrimSpace(barcode) == "" {
		return NewHTTPError(http.StatusBadRequest, "barcode required")
	}
	if qty.Sign() <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	ok, err := u.inventoryRepo.DecrementStock(ctx, strings.TrimSpace(barcode), qty)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !ok {
		return NewHTTPError(http.StatusConflict, "out of stock")
	}
	return nil
}

type AdminSaveProductInput struct {
	Barcode    string
	Name       string
	Type       string
	Price      decimal.Decimal
	PricePerKg decimal.Decimal
	Stock      decimal.Decimal
}

func (in AdminSaveProductInput) validate() error {
	if strings.TrimSpace(in.Barcode) == "" {
		return NewHTTPError(http.StatusBadRequest, "barcode required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}

	// 価格はモードで片方だけが有効
	switch model.PricingType(in.Type) {
	case model.PricingFixed:
		if in.Price.Sign() < 0 {
			return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
		}
	case model.PricingWeight:
		if in.PricePerKg.Sign() < 0 {
			return NewHTTPError(http.StatusBadRequest, "price_per_kg must be >= 0")
		}
	default:
		return NewHTTPError(http.StatusBadRequest, "type must be fixed or weight")
	}

	if in.Stock.Sign() < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, in AdminSaveProductInput) (model.Product, error) {
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Barcode:    strings.TrimSpace(in.Barcode),
		Name:       strings.TrimSpace(in.Name),
		Type:       model.PricingType(in.Type),
		Price:      in.Price,
		PricePerKg: in.PricePerKg,
		StockQty:   in.Stock,
	})
	if err == repo.ErrDuplicateBarcode {
		return model.Product{}, NewHTTPError(http.StatusConflict, "barcode already exists")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 在庫以外の属性の更新。在庫はAdminUpdateInventoryで。
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, productID int64, in AdminSaveProductInput) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:         productID,
		Barcode:    strings.TrimSpace(in.Barcode),
		Name:       strings.TrimSpace(in.Name),
		Type:       model.PricingType(in.Type),
		Price:      in.Price,
		PricePerKg: in.PricePerKg,
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err == repo.ErrDuplicateBarcode {
		return NewHTTPError(http.StatusConflict, "barcode already exists")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 在庫の現在値を更新して調整履歴も残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, productID int64, newStock decimal.Decimal, reason string) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock.Sign() < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	//変更前の在庫（before）
	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//在庫の現在値を更新
	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//履歴を作成（差分）
	adj := model.InventoryAdjustment{
		ProductID: productID,
		Delta:     newStock.Sub(p.StockQty),
		Reason:    strings.TrimSpace(reason),
	}
	if err := u.inventoryRepo.CreateAdjustment(ctx, adj); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}
