package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type CoProductRepoMock struct{ mock.Mock }

func (m *CoProductRepoMock) ListAll(ctx context.Context) ([]model.Product, error) {
	panic("not used in CheckoutUsecase tests")
}

func (m *CoProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	panic("not used in CheckoutUsecase tests")
}

func (m *CoProductRepoMock) FindByBarcode(ctx context.Context, barcode string) (model.Product, error) {
	args := m.Called(ctx, barcode)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *CoProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in CheckoutUsecase tests")
}

func (m *CoProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in CheckoutUsecase tests")
}

func (m *CoProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in CheckoutUsecase tests")
}

type CoInventoryRepoMock struct{ mock.Mock }

func (m *CoInventoryRepoMock) DecrementStock(ctx context.Context, barcode string, qty decimal.Decimal) (bool, error) {
	args := m.Called(ctx, barcode, qty)
	return args.Bool(0), args.Error(1)
}

func (m *CoInventoryRepoMock) IncreaseStock(ctx context.Context, barcode string, qty decimal.Decimal) error {
	args := m.Called(ctx, barcode, qty)
	return args.Error(0)
}

func (m *CoInventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock decimal.Decimal) error {
	panic("not used in CheckoutUsecase tests")
}

func (m *CoInventoryRepoMock) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	panic("not used in CheckoutUsecase tests")
}

type CoInvoiceRepoMock struct{ mock.Mock }

// DBの採番だけ模して入力をそのまま返す
func (m *CoInvoiceRepoMock) Create(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	args := m.Called(ctx, inv)
	if args.Error(1) != nil {
		return model.Invoice{}, args.Error(1)
	}
	inv.ID = args.Get(0).(int64)
	for i := range inv.Items {
		inv.Items[i].ID = int64(i + 1)
		inv.Items[i].InvoiceID = inv.ID
	}
	return inv, nil
}

func (m *CoInvoiceRepoMock) List(ctx context.Context) ([]model.Invoice, error) {
	panic("not used in CheckoutUsecase tests")
}

func (m *CoInvoiceRepoMock) FindByID(ctx context.Context, id int64) (model.Invoice, error) {
	panic("not used in CheckoutUsecase tests")
}

// Txはそのまま実行するだけ（回数だけ数える）
type fakeTxManager struct {
	repos repo.TxRepos
	calls int
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.calls++
	return fn(m.repos)
}

type fakeTxRepos struct {
	products  repo.ProductRepository
	inventory repo.InventoryRepository
	invoices  repo.InvoiceRepository
}

func (r *fakeTxRepos) Products() repo.ProductRepository    { return r.products }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository { return r.inventory }
func (r *fakeTxRepos) Invoices() repo.InvoiceRepository    { return r.invoices }

func newCheckoutTestUsecase() (*usecase.CheckoutUsecase, *CoProductRepoMock, *CoInventoryRepoMock, *CoInvoiceRepoMock, *fakeTxManager) {
	pRepo := new(CoProductRepoMock)
	invRepo := new(CoInventoryRepoMock)
	ivRepo := new(CoInvoiceRepoMock)
	tx := &fakeTxManager{repos: &fakeTxRepos{products: pRepo, inventory: invRepo, invoices: ivRepo}}
	return usecase.NewCheckoutUsecase(pRepo, tx), pRepo, invRepo, ivRepo, tx
}

func chocolateCake(stock int64) model.Product {
	return model.Product{
		ID:       1,
		Barcode:  "111",
		Name:     "Chocolate Cake",
		Type:     model.PricingFixed,
		Price:    decimal.NewFromInt(1500),
		StockQty: decimal.NewFromInt(stock),
	}
}

func cupCake(stock int64) model.Product {
	return model.Product{
		ID:       3,
		Barcode:  "333",
		Name:     "Cup Cake",
		Type:     model.PricingFixed,
		Price:    decimal.NewFromInt(300),
		StockQty: decimal.NewFromInt(stock),
	}
}

func decEq(want int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(want))
	})
}

// =====================
// Scan
// =====================

func TestCheckoutUsecase_Scan_AddsAndMerges(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, _, _, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)

	out, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(3))
	assert.NoError(t, err)
	assert.Equal(t, usecase.SessionBuilding, out.State)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(4500)))

	out, err = uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(2))
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, out.Total.Equal(decimal.NewFromInt(7500)))
}

func TestCheckoutUsecase_Scan_UnknownBarcode(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, _, _, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "999").Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.Scan(ctx, "till-1", "999", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// 在庫2に5個は事前チェックで弾かれ、ドラフトは空のまま
func TestCheckoutUsecase_Scan_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, _, _, _ := newCheckoutTestUsecase()

	p := model.Product{ID: 2, Barcode: "222", Name: "Ribbon Cake", Type: model.PricingWeight, PricePerKg: decimal.NewFromInt(2500), StockQty: decimal.NewFromInt(2)}
	pRepo.On("FindByBarcode", mock.Anything, "222").Return(p, nil)

	_, err := uc.Scan(ctx, "till-1", "222", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	out, err := uc.GetDraft(ctx, "till-1")
	assert.NoError(t, err)
	assert.Len(t, out.Items, 0)
}

func TestCheckoutUsecase_Scan_InvalidQuantity(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, _, _, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)

	_, err := uc.Scan(ctx, "till-1", "111", decimal.Zero)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
}

func TestCheckoutUsecase_Scan_InvalidSession(t *testing.T) {
	uc, _, _, _, _ := newCheckoutTestUsecase()

	_, err := uc.Scan(context.Background(), "", "111", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, usecase.ErrInvalidSession)
}

// =====================
// GenerateBill
// =====================

// 明細ゼロの確定はストアに触らず弾く
func TestCheckoutUsecase_GenerateBill_EmptyDraft(t *testing.T) {
	uc, _, _, _, tx := newCheckoutTestUsecase()

	_, err := uc.GenerateBill(context.Background(), "till-1")
	assert.ErrorIs(t, err, usecase.ErrEmptyInvoice)
	assert.Equal(t, 0, tx.calls)
}

// シナリオ: 111を3個+2個 → 1行5個7500 → 確定で在庫5減・請求7500・ドラフト空
func TestCheckoutUsecase_GenerateBill_Success(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, invRepo, ivRepo, tx := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)
	invRepo.On("DecrementStock", mock.Anything, "111", decEq(5)).Return(true, nil)
	ivRepo.On("Create", mock.Anything, mock.AnythingOfType("model.Invoice")).Return(int64(1), nil)

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(3))
	assert.NoError(t, err)
	_, err = uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(2))
	assert.NoError(t, err)

	out, err := uc.GenerateBill(ctx, "till-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	assert.NotEmpty(t, out.Number)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(7500)))
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].Quantity.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, 1, tx.calls)
	invRepo.AssertNumberOfCalls(t, "DecrementStock", 1)

	//ドラフトは空に戻る
	draft, err := uc.GetDraft(ctx, "till-1")
	assert.NoError(t, err)
	assert.Equal(t, usecase.SessionIdle, draft.State)
	assert.Len(t, draft.Items, 0)
}

// 確定時に価格を読み直さない（スキャン時のスナップショットで請求する）
func TestCheckoutUsecase_GenerateBill_PriceSnapshotStable(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, invRepo, ivRepo, _ := newCheckoutTestUsecase()

	//スキャン時は1500
	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil).Once()

	//確定時には値上げ済み
	raised := chocolateCake(10)
	raised.Price = decimal.NewFromInt(9999)
	pRepo.On("FindByBarcode", mock.Anything, "111").Return(raised, nil).Once()

	invRepo.On("DecrementStock", mock.Anything, "111", decEq(2)).Return(true, nil)
	ivRepo.On("Create", mock.Anything, mock.MatchedBy(func(inv model.Invoice) bool {
		return len(inv.Items) == 1 &&
			inv.Items[0].UnitPriceSnapshot.Equal(decimal.NewFromInt(1500)) &&
			inv.TotalAmount.Equal(decimal.NewFromInt(3000))
	})).Return(int64(1), nil)

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(2))
	assert.NoError(t, err)

	out, err := uc.GenerateBill(ctx, "till-1")
	assert.NoError(t, err)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(3000)))
	ivRepo.AssertExpectations(t)
}

// 2行目が在庫不足 → 減算済みの1行目は補償で戻し、ドラフトは残る
func TestCheckoutUsecase_GenerateBill_InsufficientAtCommit_Compensates(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, invRepo, _, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)
	pRepo.On("FindByBarcode", mock.Anything, "333").Return(cupCake(1), nil)

	invRepo.On("DecrementStock", mock.Anything, "111", decEq(2)).Return(true, nil)
	invRepo.On("DecrementStock", mock.Anything, "333", decEq(1)).Return(false, nil)
	invRepo.On("IncreaseStock", mock.Anything, "111", decEq(2)).Return(nil)

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(2))
	assert.NoError(t, err)
	_, err = uc.Scan(ctx, "till-1", "333", decimal.NewFromInt(1))
	assert.NoError(t, err)

	_, err = uc.GenerateBill(ctx, "till-1")
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	var ce *usecase.CommitError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, "333", ce.Barcode)

	invRepo.AssertCalled(t, "IncreaseStock", mock.Anything, "111", decEq(2))

	//明細は消えず編集に戻る
	draft, err := uc.GetDraft(ctx, "till-1")
	assert.NoError(t, err)
	assert.Equal(t, usecase.SessionBuilding, draft.State)
	assert.Len(t, draft.Items, 2)
}

// 補償も失敗したら、戻せなかったバーコードを持つPartialCommitErrorになる
func TestCheckoutUsecase_GenerateBill_CompensationFails(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, invRepo, _, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)
	pRepo.On("FindByBarcode", mock.Anything, "333").Return(cupCake(1), nil)

	invRepo.On("DecrementStock", mock.Anything, "111", decEq(2)).Return(true, nil)
	invRepo.On("DecrementStock", mock.Anything, "333", decEq(1)).Return(false, nil)
	invRepo.On("IncreaseStock", mock.Anything, "111", decEq(2)).Return(errors.New("connection reset"))

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(2))
	assert.NoError(t, err)
	_, err = uc.Scan(ctx, "till-1", "333", decimal.NewFromInt(1))
	assert.NoError(t, err)

	_, err = uc.GenerateBill(ctx, "till-1")

	var pe *usecase.PartialCommitError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"111"}, pe.Unrestored)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
}

// 確定中に商品が消えた場合はそのバーコード付きのNotFound
func TestCheckoutUsecase_GenerateBill_ProductGoneAtCommit(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, _, _, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil).Once()
	pRepo.On("FindByBarcode", mock.Anything, "111").Return(model.Product{}, repo.ErrNotFound).Once()

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(1))
	assert.NoError(t, err)

	_, err = uc.GenerateBill(ctx, "till-1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	var ce *usecase.CommitError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, "111", ce.Barcode)
}

// 請求の保存が落ちたらTransient扱いで、減算済みの在庫は補償される
func TestCheckoutUsecase_GenerateBill_InvoiceSaveFails(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, invRepo, ivRepo, _ := newCheckoutTestUsecase()

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)
	invRepo.On("DecrementStock", mock.Anything, "111", decEq(1)).Return(true, nil)
	invRepo.On("IncreaseStock", mock.Anything, "111", decEq(1)).Return(nil)
	ivRepo.On("Create", mock.Anything, mock.AnythingOfType("model.Invoice")).Return(int64(0), errors.New("timeout"))

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(1))
	assert.NoError(t, err)

	_, err = uc.GenerateBill(ctx, "till-1")
	assert.ErrorIs(t, err, usecase.ErrTransient)
	invRepo.AssertCalled(t, "IncreaseStock", mock.Anything, "111", decEq(1))
}

// 確定処理中のセッションは新しいスキャンを受け付けない
func TestCheckoutUsecase_Scan_RejectedWhileCommitting(t *testing.T) {
	ctx := context.Background()
	uc, pRepo, invRepo, ivRepo, _ := newCheckoutTestUsecase()

	started := make(chan struct{})
	release := make(chan struct{})

	pRepo.On("FindByBarcode", mock.Anything, "111").Return(chocolateCake(10), nil)
	invRepo.On("DecrementStock", mock.Anything, "111", decEq(1)).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(true, nil)
	ivRepo.On("Create", mock.Anything, mock.AnythingOfType("model.Invoice")).Return(int64(1), nil)

	_, err := uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(1))
	assert.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := uc.GenerateBill(ctx, "till-1")
		assert.NoError(t, err)
	}()

	<-started
	_, err = uc.Scan(ctx, "till-1", "111", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, usecase.ErrCommitInFlight)

	close(release)
	wg.Wait()
}
