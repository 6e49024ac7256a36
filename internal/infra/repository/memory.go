package repository

import (
	"context"
	"sync"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MemoryStore はDBなしで動くインメモリ実装（ローカル起動・テスト用）。
// 在庫のチェック＋減算はmutexの中で行い、SQL実装の条件付きUPDATEと同じ保証にする。
// トランザクションのロールバックは無い（WithinTxはそのまま実行するだけ）。
type MemoryStore struct {
	mu sync.Mutex

	nextProductID int64
	nextInvoiceID int64
	nextItemID    int64
	nextAdjID     int64

	products    []model.Product // 登録順
	invoices    []model.Invoice
	adjustments []model.InventoryAdjustment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Products() repo.ProductRepository    { return (*memoryProducts)(s) }
func (s *MemoryStore) Inventory() repo.InventoryRepository { return (*memoryInventory)(s) }
func (s *MemoryStore) Invoices() repo.InvoiceRepository    { return (*memoryInvoices)(s) }

// ロールバック無し。失敗時の後始末は呼び出し側の補償処理に任せる。
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s)
}

func (s *MemoryStore) findIndexByBarcode(barcode string) int {
	for i := range s.products {
		if s.products[i].Barcode == barcode && !s.products[i].DeletedAt.Valid {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) findIndexByID(id int64) int {
	for i := range s.products {
		if s.products[i].ID == id && !s.products[i].DeletedAt.Valid {
			return i
		}
	}
	return -1
}

type memoryProducts MemoryStore

func (r *memoryProducts) ListAll(ctx context.Context) ([]model.Product, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByID(id)
	if i < 0 {
		return model.Product{}, repo.ErrNotFound
	}
	return s.products[i], nil
}

func (r *memoryProducts) FindByBarcode(ctx context.Context, barcode string) (model.Product, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByBarcode(barcode)
	if i < 0 {
		return model.Product{}, repo.ErrNotFound
	}
	return s.products[i], nil
}

func (r *memoryProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findIndexByBarcode(p.Barcode) >= 0 {
		return model.Product{}, repo.ErrDuplicateBarcode
	}
	s.nextProductID++
	p.ID = s.nextProductID
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products = append(s.products, p)
	return p, nil
}

func (r *memoryProducts) Update(ctx context.Context, p model.Product) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByID(p.ID)
	if i < 0 {
		return repo.ErrNotFound
	}
	if j := s.findIndexByBarcode(p.Barcode); j >= 0 && j != i {
		return repo.ErrDuplicateBarcode
	}
	s.products[i].Barcode = p.Barcode
	s.products[i].Name = p.Name
	s.products[i].Type = p.Type
	s.products[i].Price = p.Price
	s.products[i].PricePerKg = p.PricePerKg
	s.products[i].UpdatedAt = time.Now()
	return nil
}

func (r *memoryProducts) SoftDelete(ctx context.Context, id int64) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByID(id)
	if i < 0 {
		return repo.ErrNotFound
	}
	s.products[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

type memoryInventory MemoryStore

// チェックと減算を同じロックの中で行う（stale readで二重に通さない）
func (r *memoryInventory) DecrementStock(ctx context.Context, barcode string, qty decimal.Decimal) (bool, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByBarcode(barcode)
	if i < 0 {
		return false, repo.ErrNotFound
	}
	if s.products[i].StockQty.LessThan(qty) {
		return false, nil
	}
	s.products[i].StockQty = s.products[i].StockQty.Sub(qty)
	s.products[i].UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryInventory) IncreaseStock(ctx context.Context, barcode string, qty decimal.Decimal) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByBarcode(barcode)
	if i < 0 {
		return repo.ErrNotFound
	}
	s.products[i].StockQty = s.products[i].StockQty.Add(qty)
	s.products[i].UpdatedAt = time.Now()
	return nil
}

func (r *memoryInventory) SetStock(ctx context.Context, productID int64, newStock decimal.Decimal) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findIndexByID(productID)
	if i < 0 {
		return repo.ErrNotFound
	}
	s.products[i].StockQty = newStock
	s.products[i].UpdatedAt = time.Now()
	return nil
}

func (r *memoryInventory) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAdjID++
	adj.ID = s.nextAdjID
	adj.CreatedAt = time.Now()
	s.adjustments = append(s.adjustments, adj)
	return nil
}

type memoryInvoices MemoryStore

func (r *memoryInvoices) Create(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextInvoiceID++
	inv.ID = s.nextInvoiceID
	inv.CreatedAt = time.Now()
	for i := range inv.Items {
		s.nextItemID++
		inv.Items[i].ID = s.nextItemID
		inv.Items[i].InvoiceID = inv.ID
		inv.Items[i].CreatedAt = inv.CreatedAt
	}
	s.invoices = append(s.invoices, inv)
	return inv, nil
}

func (r *memoryInvoices) List(ctx context.Context) ([]model.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Invoice, 0, len(s.invoices))
	//新しい順
	for i := len(s.invoices) - 1; i >= 0; i-- {
		out = append(out, s.resolveProducts(s.invoices[i]))
	}
	return out, nil
}

func (r *memoryInvoices) FindByID(ctx context.Context, id int64) (model.Invoice, error) {
	s := (*MemoryStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.invoices {
		if inv.ID == id {
			return s.resolveProducts(inv), nil
		}
	}
	return model.Invoice{}, repo.ErrNotFound
}

// 明細の商品参照を埋める（SQL実装のPreload相当）
func (s *MemoryStore) resolveProducts(inv model.Invoice) model.Invoice {
	items := make([]model.InvoiceItem, len(inv.Items))
	copy(items, inv.Items)
	for i := range items {
		for _, p := range s.products {
			if p.ID == items[i].ProductID {
				items[i].Product = p
				break
			}
		}
	}
	inv.Items = items
	return inv
}
