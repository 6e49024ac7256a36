package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func fixedProduct(barcode string, price int64, stock int64) Product {
	return Product{
		ID:       1,
		Barcode:  barcode,
		Name:     "Chocolate Cake",
		Type:     PricingFixed,
		Price:    decimal.NewFromInt(price),
		StockQty: decimal.NewFromInt(stock),
	}
}

func TestInvoiceDraft_AddScan_NewLine(t *testing.T) {
	var d InvoiceDraft

	err := d.AddScan(fixedProduct("111", 1500, 10), decimal.NewFromInt(3))
	assert.NoError(t, err)

	lines := d.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, "111", lines[0].Barcode)
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(4500)))
	assert.True(t, d.Total().Equal(decimal.NewFromInt(4500)))
}

// 同一バーコードは1行に加算される
func TestInvoiceDraft_AddScan_MergesSameBarcode(t *testing.T) {
	var d InvoiceDraft
	p := fixedProduct("111", 1500, 10)

	assert.NoError(t, d.AddScan(p, decimal.NewFromInt(3)))
	assert.NoError(t, d.AddScan(p, decimal.NewFromInt(2)))

	lines := d.Lines()
	assert.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(7500)))
	assert.True(t, d.Total().Equal(decimal.NewFromInt(7500)))
}

// 加算時に単価を取り直さない（途中で価格が変わっても最初の単価のまま）
func TestInvoiceDraft_AddScan_KeepsFirstUnitPrice(t *testing.T) {
	var d InvoiceDraft

	assert.NoError(t, d.AddScan(fixedProduct("111", 1500, 10), decimal.NewFromInt(3)))

	//カタログ側で値上げされた想定
	assert.NoError(t, d.AddScan(fixedProduct("111", 2000, 10), decimal.NewFromInt(2)))

	lines := d.Lines()
	assert.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(1500)))
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(7500)))
}

func TestInvoiceDraft_AddScan_InvalidQuantity(t *testing.T) {
	var d InvoiceDraft
	p := fixedProduct("111", 1500, 10)

	assert.ErrorIs(t, d.AddScan(p, decimal.Zero), ErrInvalidQuantity)
	assert.ErrorIs(t, d.AddScan(p, decimal.NewFromInt(-1)), ErrInvalidQuantity)
	assert.True(t, d.Empty())
}

// 在庫2の商品に5個は事前チェックで弾く。ドラフトは変化しない
func TestInvoiceDraft_AddScan_InsufficientStock(t *testing.T) {
	var d InvoiceDraft

	err := d.AddScan(fixedProduct("222", 500, 2), decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, d.Empty())
	assert.True(t, d.Total().Equal(decimal.Zero))
}

// 加算後の数量でも在庫チェックする
func TestInvoiceDraft_AddScan_MergeExceedsStock(t *testing.T) {
	var d InvoiceDraft
	p := fixedProduct("111", 1500, 5)

	assert.NoError(t, d.AddScan(p, decimal.NewFromInt(3)))
	assert.ErrorIs(t, d.AddScan(p, decimal.NewFromInt(3)), ErrInsufficientStock)

	//失敗したスキャンは取り込まれない
	lines := d.Lines()
	assert.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(3)))
}

// weightはkg単価×小数量
func TestInvoiceDraft_AddScan_WeightPricing(t *testing.T) {
	var d InvoiceDraft
	p := Product{
		ID:         2,
		Barcode:    "222",
		Name:       "Ribbon Cake",
		Type:       PricingWeight,
		PricePerKg: decimal.NewFromInt(2500),
		StockQty:   decimal.NewFromInt(20),
	}

	qty := decimal.RequireFromString("0.5")
	assert.NoError(t, d.AddScan(p, qty))

	lines := d.Lines()
	assert.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(2500)))
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(1250)))
}

func TestInvoiceDraft_RemoveLine(t *testing.T) {
	var d InvoiceDraft

	assert.NoError(t, d.AddScan(fixedProduct("111", 1500, 10), decimal.NewFromInt(1)))
	assert.NoError(t, d.AddScan(fixedProduct("333", 300, 25), decimal.NewFromInt(2)))

	assert.NoError(t, d.RemoveLine(0))

	lines := d.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, "333", lines[0].Barcode)
	assert.True(t, d.Total().Equal(decimal.NewFromInt(600)))
}

func TestInvoiceDraft_RemoveLine_OutOfRange(t *testing.T) {
	var d InvoiceDraft

	assert.ErrorIs(t, d.RemoveLine(0), ErrLineOutOfRange)

	assert.NoError(t, d.AddScan(fixedProduct("111", 1500, 10), decimal.NewFromInt(1)))
	assert.ErrorIs(t, d.RemoveLine(-1), ErrLineOutOfRange)
	assert.ErrorIs(t, d.RemoveLine(1), ErrLineOutOfRange)
}

func TestInvoiceDraft_Clear(t *testing.T) {
	var d InvoiceDraft

	assert.NoError(t, d.AddScan(fixedProduct("111", 1500, 10), decimal.NewFromInt(3)))
	d.Clear()

	assert.True(t, d.Empty())
	assert.True(t, d.Total().Equal(decimal.Zero))
}

// Totalは常に行から計算し直す
func TestInvoiceDraft_Total_Recomputed(t *testing.T) {
	var d InvoiceDraft

	assert.NoError(t, d.AddScan(fixedProduct("111", 1500, 10), decimal.NewFromInt(2)))
	assert.NoError(t, d.AddScan(fixedProduct("333", 300, 25), decimal.NewFromInt(3)))
	assert.True(t, d.Total().Equal(decimal.NewFromInt(3900)))

	assert.NoError(t, d.RemoveLine(1))
	assert.True(t, d.Total().Equal(decimal.NewFromInt(3000)))
}
