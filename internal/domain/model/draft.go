package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// 0以下の数量
	ErrInvalidQuantity = errors.New("invalid quantity")
	// 画面側の事前チェック（確定時はストアが改めてチェックする）
	ErrInsufficientStock = errors.New("insufficient stock")
	// 行indexが範囲外
	ErrLineOutOfRange = errors.New("line index out of range")
)

// 会計1回分の明細行。
// 単価は追加時点のスナップショットで、以後は再取得しない。
type DraftLine struct {
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceDraft は確定前のスキャン明細。
// 1セッション専用で永続化しない。
type InvoiceDraft struct {
	lines []DraftLine
}

// AddScan はスキャンを取り込む（同一バーコードは数量加算）。
// 加算時も単価は最初のスキャン時点のまま。
func (d *InvoiceDraft) AddScan(p Product, qty decimal.Decimal) error {
	if qty.Sign() <= 0 {
		return ErrInvalidQuantity
	}

	for i := range d.lines {
		if d.lines[i].Barcode == p.Barcode {
			merged := d.lines[i].Quantity.Add(qty)
			if merged.GreaterThan(p.StockQty) {
				return ErrInsufficientStock
			}
			d.lines[i].Quantity = merged
			d.lines[i].Amount = merged.Mul(d.lines[i].UnitPrice)
			return nil
		}
	}

	if qty.GreaterThan(p.StockQty) {
		return ErrInsufficientStock
	}

	price := p.UnitPrice()
	d.lines = append(d.lines, DraftLine{
		Barcode:   p.Barcode,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: price,
		Amount:    qty.Mul(price),
	})
	return nil
}

// 行削除
func (d *InvoiceDraft) RemoveLine(index int) error {
	if index < 0 || index >= len(d.lines) {
		return ErrLineOutOfRange
	}
	d.lines = append(d.lines[:index], d.lines[index+1:]...)
	return nil
}

// 全行クリア
func (d *InvoiceDraft) Clear() {
	d.lines = nil
}

// Total は行のAmountから毎回計算し直す（合計を別持ちしてズレを作らない）
func (d *InvoiceDraft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Lines は追加順のコピーを返す
func (d *InvoiceDraft) Lines() []DraftLine {
	out := make([]DraftLine, len(d.lines))
	copy(out, d.lines)
	return out
}

func (d *InvoiceDraft) Empty() bool {
	return len(d.lines) == 0
}
