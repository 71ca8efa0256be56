package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labpilot/labpilot/internal/domain/referrer"
)

const invCols = `i.id, i.invoice_id, i.patient_name, i.gender, i.age, i.contact_number,
	i.referred_by, i.total_amount, i.has_referrer_discount, i.referrer_discount_percentage,
	i.price_after_referrer_discount, i.has_lab_adjustment, i.lab_adjustment_amount,
	i.final_price, i.created_at, i.updated_at,
	r.id, r.name, r.contact_number, r.commission_type, r.commission_value,
	r.is_active, r.created_at, r.updated_at`

const invJoin = `FROM invoices i LEFT JOIN referrers r ON r.id = i.referred_by`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) ExistsInvoiceID(ctx context.Context, invoiceID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE invoice_id = $1)`, invoiceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice id: %w", err)
	}
	return exists, nil
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create invoice: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO invoices (id, invoice_id, patient_name, gender, age, contact_number,
			referred_by, total_amount, has_referrer_discount, referrer_discount_percentage,
			price_after_referrer_discount, has_lab_adjustment, lab_adjustment_amount, final_price)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at, updated_at`,
		inv.ID, inv.InvoiceID, inv.PatientName, inv.Gender, string(inv.Age), inv.ContactNumber,
		inv.ReferredByID, inv.TotalAmount, inv.HasReferrerDiscount, inv.ReferrerDiscountPercentage,
		inv.PriceAfterReferrerDiscount, inv.HasLabAdjustment, inv.LabAdjustmentAmount, inv.FinalPrice,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	for pos, item := range inv.Tests {
		_, err = tx.Exec(ctx,
			`INSERT INTO invoice_items (invoice_id, position, test_id, name, price, schema_id, report, is_completed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			inv.ID, pos, item.TestID, item.Name, item.Price, item.SchemaID, item.Report, item.IsCompleted)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create invoice: %w", err)
	}
	return nil
}

func (r *repoPG) GetByInvoiceID(ctx context.Context, invoiceID string) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invCols+` `+invJoin+` WHERE i.invoice_id = $1`, invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invCols+` `+invJoin+` ORDER BY i.invoice_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoPG) loadItems(ctx context.Context, invoices []*Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(invoices))
	byID := make(map[uuid.UUID]*Invoice, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
	}

	rows, err := r.pool.Query(ctx,
		`SELECT invoice_id, test_id, name, price, schema_id, report, is_completed
		 FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner uuid.UUID
		var item LineItem
		if err := rows.Scan(&owner, &item.TestID, &item.Name, &item.Price,
			&item.SchemaID, &item.Report, &item.IsCompleted); err != nil {
			return fmt.Errorf("scan invoice item: %w", err)
		}
		inv := byID[owner]
		inv.Tests = append(inv.Tests, item)
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var age string
	var refID *uuid.UUID
	var refName, refContact, refType *string
	var refValue *float64
	var refActive *bool
	var refCreated, refUpdated *time.Time

	err := row.Scan(
		&inv.ID, &inv.InvoiceID, &inv.PatientName, &inv.Gender, &age, &inv.ContactNumber,
		&inv.ReferredByID, &inv.TotalAmount, &inv.HasReferrerDiscount, &inv.ReferrerDiscountPercentage,
		&inv.PriceAfterReferrerDiscount, &inv.HasLabAdjustment, &inv.LabAdjustmentAmount,
		&inv.FinalPrice, &inv.CreatedAt, &inv.UpdatedAt,
		&refID, &refName, &refContact, &refType, &refValue, &refActive, &refCreated, &refUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.Age = Age(age)
	if refID != nil {
		inv.ReferredBy = &referrer.Referrer{
			ID:              *refID,
			Name:            *refName,
			ContactNumber:   *refContact,
			CommissionType:  *refType,
			CommissionValue: *refValue,
			IsActive:        *refActive,
			CreatedAt:       *refCreated,
			UpdatedAt:       *refUpdated,
		}
	}
	return &inv, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
