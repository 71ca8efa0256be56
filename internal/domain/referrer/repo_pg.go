package referrer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(_ context.Context) queryable { return r.pool }

const refCols = `id, name, contact_number, commission_type, commission_value,
	is_active, created_at, updated_at`

func scanReferrer(row pgx.Row) (*Referrer, error) {
	var ref Referrer
	err := row.Scan(&ref.ID, &ref.Name, &ref.ContactNumber, &ref.CommissionType,
		&ref.CommissionValue, &ref.IsActive, &ref.CreatedAt, &ref.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &ref, err
}

func (r *repoPG) Create(ctx context.Context, ref *Referrer) error {
	ref.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO referrers (id, name, contact_number, commission_type, commission_value, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		ref.ID, ref.Name, ref.ContactNumber, ref.CommissionType, ref.CommissionValue, ref.IsActive).
		Scan(&ref.CreatedAt, &ref.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Referrer, error) {
	return scanReferrer(r.conn(ctx).QueryRow(ctx, `SELECT `+refCols+` FROM referrers WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, ref *Referrer) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE referrers SET name=$2, contact_number=$3, commission_type=$4,
			commission_value=$5, is_active=$6, updated_at=NOW()
		WHERE id = $1`,
		ref.ID, ref.Name, ref.ContactNumber, ref.CommissionType, ref.CommissionValue, ref.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE referrers SET is_active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM referrers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Referrer, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+refCols+` FROM referrers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Referrer
	for rows.Next() {
		ref, err := scanReferrer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ref)
	}
	return items, rows.Err()
}
