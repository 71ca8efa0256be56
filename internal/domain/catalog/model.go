package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Price accepts either a JSON number or a numeric string ("120.50"), since
// catalog clients historically submitted both.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*p = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("invalid price value %q", str)
		}
		*p = Price(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid price value %s", s)
	}
	*p = Price(v)
	return nil
}

// LabTest maps to the lab_tests table. TestID is the externally assigned
// catalog key the HTTP surface addresses tests by; it is distinct from the
// store key.
type LabTest struct {
	ID         uuid.UUID  `db:"id" json:"_id"`
	Name       string     `db:"name" json:"name"`
	TestID     *uuid.UUID `db:"test_id" json:"testId"`
	CategoryID *uuid.UUID `db:"category_id" json:"categoryId"`
	SchemaID   *uuid.UUID `db:"schema_id" json:"schemaId"`
	Price      float64    `db:"price" json:"price"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// TestCategory maps to the test_categories lookup table.
type TestCategory struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CatalogEntry maps to the test_catalog reference table of orderable tests.
type CatalogEntry struct {
	ID         uuid.UUID  `db:"id" json:"_id"`
	Name       string     `db:"name" json:"name"`
	CategoryID *uuid.UUID `db:"category_id" json:"categoryId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// TestSchema maps to the test_schemas table. Fields holds the report layout
// as free-form JSON.
type TestSchema struct {
	ID        uuid.UUID              `db:"id" json:"_id"`
	TestID    uuid.UUID              `db:"test_id" json:"testId"`
	Name      string                 `db:"name" json:"name"`
	Fields    map[string]interface{} `db:"fields" json:"fields"`
	IsActive  bool                   `db:"is_active" json:"isActive"`
	CreatedAt time.Time              `db:"created_at" json:"createdAt"`
}
