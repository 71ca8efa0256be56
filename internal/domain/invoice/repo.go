package invoice

import (
	"context"
)

// Repository persists invoices together with their line-item snapshots.
// Create is all-or-nothing: either the invoice row and every item land, or
// nothing does.
type Repository interface {
	ExistsInvoiceID(ctx context.Context, invoiceID string) (bool, error)
	Create(ctx context.Context, inv *Invoice) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*Invoice, error)
	List(ctx context.Context) ([]*Invoice, error)
}
