package sale

import (
	"context"
	"time"

	"balcao/internal/core/types"
	"balcao/pkg/logger"
)

// Receipt is the payload handed to the printing boundary after commit.
type Receipt struct {
	SaleNumber string        `json:"saleNumber"`
	Issued     time.Time     `json:"issued"`
	Lines      []ReceiptLine `json:"lines"`
	Total      types.Money   `json:"total"`
	Payments   []Payment     `json:"payments"`
}

// ReceiptLine is one printed line.
type ReceiptLine struct {
	Description string         `json:"description"`
	Quantity    types.Quantity `json:"quantity"`
	UnitPrice   types.Money    `json:"unitPrice"`
	Total       types.Money    `json:"total"`
}

// Printer renders a receipt. Printing is outside the sale transaction: a
// printer failure never rolls back a committed sale.
type Printer interface {
	Print(ctx context.Context, r Receipt) error
}

func buildReceipt(s *Sale) Receipt {
	r := Receipt{
		SaleNumber: s.Number,
		Issued:     s.Date,
		Total:      s.Total,
		Payments:   s.Payments,
	}
	for _, l := range s.Lines {
		r.Lines = append(r.Lines, ReceiptLine{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		})
	}
	return r
}

// printAsync hands the receipt to the printer on its own goroutine, detached
// from the request context so an early client disconnect does not cancel it.
func printAsync(ctx context.Context, p Printer, r Receipt) {
	if p == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(ctx, "receipt printer panicked", "panic", rec)
			}
		}()
		printCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := p.Print(printCtx, r); err != nil {
			logger.Warn(ctx, "receipt print failed", "sale_number", r.SaleNumber, "error", err)
		}
	}()
}
