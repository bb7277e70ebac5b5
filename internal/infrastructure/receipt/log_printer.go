// Package receipt provides receipt printer implementations.
package receipt

import (
	"context"

	"balcao/internal/domain/sale"
	"balcao/pkg/logger"
)

// LogPrinter writes receipts to the structured log. It stands in for a
// physical printer on deployments that run without one.
type LogPrinter struct {
	log *logger.Logger
}

// NewLogPrinter creates a log-backed receipt printer.
func NewLogPrinter(log *logger.Logger) *LogPrinter {
	return &LogPrinter{log: log.WithComponent("receipt")}
}

// Print logs the receipt.
func (p *LogPrinter) Print(ctx context.Context, r sale.Receipt) error {
	p.log.WithContext(ctx).Infow("receipt",
		"sale_number", r.SaleNumber,
		"issued", r.Issued,
		"lines", len(r.Lines),
		"total", r.Total,
	)
	return nil
}

var _ sale.Printer = (*LogPrinter)(nil)
