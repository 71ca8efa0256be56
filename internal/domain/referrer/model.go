package referrer

import (
	"time"

	"github.com/google/uuid"
)

// Commission types accepted on a referrer.
const (
	CommissionFlat       = "flat"
	CommissionPercentage = "percentage"
)

// Referrer maps to the referrers table. A referrer is the clinician or
// facility that sends patients to the lab; invoices reference them by id and
// commission settings drive referrer discounts at invoicing time.
type Referrer struct {
	ID              uuid.UUID `db:"id" json:"_id"`
	Name            string    `db:"name" json:"name"`
	ContactNumber   string    `db:"contact_number" json:"contactNumber"`
	CommissionType  string    `db:"commission_type" json:"commissionType"`
	CommissionValue float64   `db:"commission_value" json:"commissionValue"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}
