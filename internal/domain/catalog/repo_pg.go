package catalog

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

const testCols = `id, name, test_id, category_id, schema_id, price, created_at, updated_at`

func scanTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Name, &t.TestID, &t.CategoryID, &t.SchemaID,
		&t.Price, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, t *LabTest) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_tests (id, name, test_id, category_id, schema_id, price)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.TestID, t.CategoryID, t.SchemaID, t.Price).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*LabTest, error) {
	return scanTest(r.conn(ctx).QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE name = $1`, name))
}

func (r *repoPG) GetByTestID(ctx context.Context, testID uuid.UUID) (*LabTest, error) {
	return scanTest(r.conn(ctx).QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE test_id = $1`, testID))
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return scanTest(r.conn(ctx).QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *LabTest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_tests SET name=$2, category_id=$3, schema_id=$4, price=$5, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.CategoryID, t.SchemaID, t.Price)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteByTestID(ctx context.Context, testID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_tests WHERE test_id = $1`, testID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+testCols+` FROM lab_tests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *repoPG) ListCategories(ctx context.Context) ([]*TestCategory, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, created_at FROM test_categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TestCategory
	for rows.Next() {
		var c TestCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

func (r *repoPG) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, category_id, created_at FROM test_catalog`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.CategoryID, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

func (r *repoPG) ListActiveSchemas(ctx context.Context, testID uuid.UUID) ([]*TestSchema, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, test_id, name, fields, is_active, created_at
		 FROM test_schemas WHERE test_id = $1 AND is_active`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TestSchema
	for rows.Next() {
		var s TestSchema
		if err := rows.Scan(&s.ID, &s.TestID, &s.Name, &s.Fields, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
