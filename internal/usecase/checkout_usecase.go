package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 会計セッションの状態
type SessionState string

const (
	// 明細なし
	SessionIdle SessionState = "IDLE"
	// 明細あり・編集可
	SessionBuilding SessionState = "BUILDING"
	// 確定処理中。新しいスキャンは受け付けない
	SessionCommitting SessionState = "COMMITTING"
)

var (
	//明細ゼロで確定しようとした
	ErrEmptyInvoice = errors.New("empty invoice")
	//同一セッションで確定処理が走っている
	ErrCommitInFlight = errors.New("commit in flight")
	//ストレージ側の一時障害。会計全体の再実行は安全
	ErrTransient = errors.New("storage temporarily unavailable")
	//セッションID未指定
	ErrInvalidSession = errors.New("invalid session")
)

// CommitError は確定に失敗した行のバーコードを持つ。
type CommitError struct {
	Barcode string
	Cause   error
}

func (e *CommitError) Error() string {
	if e.Barcode == "" {
		return fmt.Sprintf("commit failed: %v", e.Cause)
	}
	return fmt.Sprintf("commit failed at %s: %v", e.Barcode, e.Cause)
}

func (e *CommitError) Unwrap() error { return e.Cause }

// PartialCommitError は減算済みの在庫を戻しきれなかった状態。
// Unrestoredのバーコードは手動リコンサイルの対象になる。
type PartialCommitError struct {
	Cause      error
	Unrestored []string
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("partial commit: %v (unrestored: %s)", e.Cause, strings.Join(e.Unrestored, ","))
}

func (e *PartialCommitError) Unwrap() error { return e.Cause }

// 1セッション=レジ1台の会計1回分
type checkoutSession struct {
	mu    sync.Mutex
	state SessionState
	draft model.InvoiceDraft
}

// CheckoutUsecase はスキャン→ドラフト→確定の流れを司る。
// ドラフトはセッション内でだけ共有され、在庫の正はストア側にある。
type CheckoutUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager

	mu       sync.Mutex
	sessions map[string]*checkoutSession
}

// DI
func NewCheckoutUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager) *CheckoutUsecase {
	return &CheckoutUsecase{
		productRepo: productRepo,
		tx:          tx,
		sessions:    make(map[string]*checkoutSession),
	}
}

type DraftLineOutput struct {
	Index     int             `json:"index"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

type DraftOutput struct {
	State SessionState      `json:"state"`
	Items []DraftLineOutput `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (u *CheckoutUsecase) session(sessionID string) *checkoutSession {
	u.mu.Lock()
	defer u.mu.Unlock()

	s, ok := u.sessions[sessionID]
	if !ok {
		s = &checkoutSession{state: SessionIdle}
		u.sessions[sessionID] = s
	}
	return s
}

// Scan はバーコードを1回読んだ分をドラフトへ取り込む。
// 同一バーコードは数量加算（単価は最初のスキャン時点のまま）。
func (u *CheckoutUsecase) Scan(ctx context.Context, sessionID string, barcode string, qty decimal.Decimal) (DraftOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return DraftOutput{}, ErrInvalidSession
	}

	s := u.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionCommitting {
		return DraftOutput{}, ErrCommitInFlight
	}

	p, err := u.productRepo.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return DraftOutput{}, err
	}

	if err := s.draft.AddScan(p, qty); err != nil {
		return DraftOutput{}, err
	}

	s.state = SessionBuilding
	return toDraftOutput(s), nil
}

func (u *CheckoutUsecase) RemoveLine(ctx context.Context, sessionID string, index int) (DraftOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return DraftOutput{}, ErrInvalidSession
	}

	s := u.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionCommitting {
		return DraftOutput{}, ErrCommitInFlight
	}

	if err := s.draft.RemoveLine(index); err != nil {
		return DraftOutput{}, err
	}

	if s.draft.Empty() {
		s.state = SessionIdle
	}
	return toDraftOutput(s), nil
}

func (u *CheckoutUsecase) ClearDraft(ctx context.Context, sessionID string) (DraftOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return DraftOutput{}, ErrInvalidSession
	}

	s := u.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionCommitting {
		return DraftOutput{}, ErrCommitInFlight
	}

	s.draft.Clear()
	s.state = SessionIdle
	return toDraftOutput(s), nil
}

func (u *CheckoutUsecase) GetDraft(ctx context.Context, sessionID string) (DraftOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return DraftOutput{}, ErrInvalidSession
	}

	s := u.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	return toDraftOutput(s), nil
}

// GenerateBill はドラフトを確定する。
// 全行の在庫減算と請求の保存を1トランザクションで行い、
// 成功したらドラフトを空にしてIDLEへ戻す。失敗時は明細を残したままBUILDINGへ戻す。
func (u *CheckoutUsecase) GenerateBill(ctx context.Context, sessionID string) (InvoiceOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return InvoiceOutput{}, ErrInvalidSession
	}

	s := u.session(sessionID)

	s.mu.Lock()
	if s.state == SessionCommitting {
		s.mu.Unlock()
		return InvoiceOutput{}, ErrCommitInFlight
	}
	if s.draft.Empty() {
		s.mu.Unlock()
		return InvoiceOutput{}, ErrEmptyInvoice
	}
	lines := s.draft.Lines()
	total := s.draft.Total()
	//確定中は新しいスキャンを受けない
	s.state = SessionCommitting
	s.mu.Unlock()

	inv, err := u.commit(ctx, lines, total)

	s.mu.Lock()
	if err != nil {
		//明細は消さずに編集へ戻す
		s.state = SessionBuilding
		s.mu.Unlock()

		zap.L().Warn("bill commit failed",
			zap.String("session", sessionID),
			zap.Int("lines", len(lines)),
			zap.Error(err),
		)
		return InvoiceOutput{}, err
	}
	s.draft.Clear()
	s.state = SessionIdle
	s.mu.Unlock()

	zap.L().Info("bill committed",
		zap.String("session", sessionID),
		zap.Int64("invoice_id", inv.ID),
		zap.String("total", inv.TotalAmount.String()),
		zap.Int("lines", len(lines)),
	)
	return toInvoiceOutput(inv), nil
}

// 全行の減算＋請求保存。行順はスキャン追加順。
func (u *CheckoutUsecase) commit(ctx context.Context, lines []model.DraftLine, total decimal.Decimal) (model.Invoice, error) {
	var inv model.Invoice

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		applied := make([]model.DraftLine, 0, len(lines))
		items := make([]model.InvoiceItem, 0, len(lines))
		prods := make([]model.Product, 0, len(lines))

		for _, line := range lines {
			p, err := r.Products().FindByBarcode(ctx, line.Barcode)
			if err == repo.ErrNotFound {
				return u.compensate(ctx, r, applied, &CommitError{Barcode: line.Barcode, Cause: repo.ErrNotFound})
			}
			if err != nil {
				return u.compensate(ctx, r, applied, &CommitError{Barcode: line.Barcode, Cause: fmt.Errorf("%w: %v", ErrTransient, err)})
			}

			ok, err := r.Inventory().DecrementStock(ctx, line.Barcode, line.Quantity)
			if err == repo.ErrNotFound {
				return u.compensate(ctx, r, applied, &CommitError{Barcode: line.Barcode, Cause: repo.ErrNotFound})
			}
			if err != nil {
				return u.compensate(ctx, r, applied, &CommitError{Barcode: line.Barcode, Cause: fmt.Errorf("%w: %v", ErrTransient, err)})
			}
			if !ok {
				//以降の行は試さない（fail-fast）
				return u.compensate(ctx, r, applied, &CommitError{Barcode: line.Barcode, Cause: model.ErrInsufficientStock})
			}
			applied = append(applied, line)

			//単価と金額はドラフトのスナップショットをそのまま使う
			items = append(items, model.InvoiceItem{
				ProductID:           p.ID,
				ProductNameSnapshot: line.Name,
				UnitPriceSnapshot:   line.UnitPrice,
				Quantity:            line.Quantity,
				TotalPrice:          line.Amount,
			})
			prods = append(prods, p)
		}

		created, err := r.Invoices().Create(ctx, model.Invoice{
			Number:      uuid.NewString(),
			TotalAmount: total,
			Items:       items,
		})
		if err != nil {
			return u.compensate(ctx, r, applied, &CommitError{Cause: fmt.Errorf("%w: %v", ErrTransient, err)})
		}

		//返却用に商品参照を埋める（保存対象ではない）
		for i := range created.Items {
			if i < len(prods) {
				created.Items[i].Product = prods[i]
			}
		}
		inv = created
		return nil
	})

	if err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}

// 減算済みの行を戻す。
// SQL実装ではTxのロールバックが効くので空振りだが、
// ロールバックを持たないストアではここが実際の戻し。
func (u *CheckoutUsecase) compensate(ctx context.Context, r repo.TxRepos, applied []model.DraftLine, cause error) error {
	var unrestored []string
	for _, line := range applied {
		if err := r.Inventory().IncreaseStock(ctx, line.Barcode, line.Quantity); err != nil {
			unrestored = append(unrestored, line.Barcode)
		}
	}
	if len(unrestored) > 0 {
		zap.L().Error("stock left decremented after failed commit",
			zap.Strings("barcodes", unrestored),
			zap.Error(cause),
		)
		return &PartialCommitError{Cause: cause, Unrestored: unrestored}
	}
	return cause
}

func toDraftOutput(s *checkoutSession) DraftOutput {
	lines := s.draft.Lines()
	items := make([]DraftLineOutput, 0, len(lines))
	for i, l := range lines {
		items = append(items, DraftLineOutput{
			Index:     i,
			Barcode:   l.Barcode,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Amount,
		})
	}

	return DraftOutput{
		State: s.state,
		Items: items,
		Total: s.draft.Total(),
	}
}
