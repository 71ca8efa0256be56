package staff

import (
	"context"
	"errors"
	"fmt"

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

const staffCols = `id, name, username, mobile_number,
	perm_create_invoice, perm_edit_invoice, perm_delete_invoice, perm_cashmemo, perm_upload_report,
	is_active, created_at, updated_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Username, &s.MobileNumber,
		&s.Permissions.CreateInvoice, &s.Permissions.EditInvoice, &s.Permissions.DeleteInvoice,
		&s.Permissions.Cashmemo, &s.Permissions.UploadReport,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, s *Staff) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO staff (id, name, username, mobile_number,
			perm_create_invoice, perm_edit_invoice, perm_delete_invoice, perm_cashmemo, perm_upload_report,
			is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Username, s.MobileNumber,
		s.Permissions.CreateInvoice, s.Permissions.EditInvoice, s.Permissions.DeleteInvoice,
		s.Permissions.Cashmemo, s.Permissions.UploadReport,
		s.IsActive).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE id = $1`, id))
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*Staff, error) {
	return scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE username = $1`, username))
}

func (r *repoPG) Update(ctx context.Context, s *Staff) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff SET name=$2, username=$3, mobile_number=$4,
			perm_create_invoice=$5, perm_edit_invoice=$6, perm_delete_invoice=$7,
			perm_cashmemo=$8, perm_upload_report=$9,
			is_active=$10, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Username, s.MobileNumber,
		s.Permissions.CreateInvoice, s.Permissions.EditInvoice, s.Permissions.DeleteInvoice,
		s.Permissions.Cashmemo, s.Permissions.UploadReport,
		s.IsActive)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
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
		`UPDATE staff SET is_active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetPermission(ctx context.Context, id uuid.UUID, permission string, value bool) error {
	col, ok := permissionColumns[permission]
	if !ok {
		return fmt.Errorf("%w: unknown permission %q", ErrInvalid, permission)
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE staff SET `+col+`=$2, updated_at=NOW() WHERE id = $1`, id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Staff, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context) ([]*Staff, error) {
	return r.list(ctx, `SELECT `+staffCols+` FROM staff ORDER BY created_at DESC`)
}

func (r *repoPG) ListActive(ctx context.Context) ([]*Staff, error) {
	return r.list(ctx, `SELECT `+staffCols+` FROM staff WHERE is_active ORDER BY name ASC`)
}

func (r *repoPG) ListWithPermission(ctx context.Context, permission string) ([]*Staff, error) {
	col, ok := permissionColumns[permission]
	if !ok {
		return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalid, permission)
	}
	return r.list(ctx, `SELECT `+staffCols+` FROM staff WHERE `+col+` AND is_active ORDER BY name ASC`)
}
