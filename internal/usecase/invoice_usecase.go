package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type InvoiceItemOutput struct {
	ProductID int64           `json:"product_id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type InvoiceOutput struct {
	ID          int64               `json:"id"`
	Number      string              `json:"number"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
	Items       []InvoiceItemOutput `json:"items"`
}

type InvoiceUsecase struct {
	invoiceRepo repo.InvoiceRepository
}

// DI
func NewInvoiceUsecase(invoiceRepo repo.InvoiceRepository) *InvoiceUsecase {
	return &InvoiceUsecase{invoiceRepo: invoiceRepo}
}

func (u *InvoiceUsecase) ListInvoices(ctx context.Context) ([]InvoiceOutput, error) {
	invoices, err := u.invoiceRepo.List(ctx)
	if err != nil {
		return []InvoiceOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]InvoiceOutput, 0, len(invoices))
	for _, inv := range invoices {
		outs = append(outs, toInvoiceOutput(inv))
	}
	return outs, nil
}

func (u *InvoiceUsecase) GetInvoiceDetail(ctx context.Context, invoiceID int64) (InvoiceOutput, error) {
	if invoiceID <= 0 {
		return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	inv, err := u.invoiceRepo.FindByID(ctx, invoiceID)
	if err == repo.ErrNotFound {
		return InvoiceOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return InvoiceOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toInvoiceOutput(inv), nil
}

func toInvoiceOutput(inv model.Invoice) InvoiceOutput {
	items := make([]InvoiceItemOutput, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, InvoiceItemOutput{
			ProductID: it.ProductID,
			Barcode:   it.Product.Barcode,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			Total:     it.TotalPrice,
		})
	}

	return InvoiceOutput{
		ID:          inv.ID,
		Number:      inv.Number,
		TotalAmount: inv.TotalAmount,
		CreatedAt:   inv.CreatedAt,
		Items:       items,
	}
}
