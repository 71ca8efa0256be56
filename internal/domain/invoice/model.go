package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/labpilot/labpilot/internal/domain/referrer"
)

// Age tolerates both string and numeric JSON input. It marshals back as a
// plain string.
type Age string

func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Age(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid age value %s", data)
	}
	*a = Age(n.String())
	return nil
}

// LineItem is a snapshot of a catalog test at the moment the invoice was
// created. Later catalog edits never touch it. Report and IsCompleted are
// seeded only for tests that carry a result schema.
type LineItem struct {
	TestID      uuid.UUID              `db:"test_id" json:"testId"`
	Name        string                 `db:"name" json:"name"`
	Price       float64                `db:"price" json:"price"`
	SchemaID    *uuid.UUID             `db:"schema_id" json:"schemaId"`
	Report      map[string]interface{} `db:"report" json:"report,omitempty"`
	IsCompleted *bool                  `db:"is_completed" json:"isCompleted,omitempty"`
}

type Invoice struct {
	ID            uuid.UUID  `db:"id" json:"_id"`
	InvoiceID     string     `db:"invoice_id" json:"invoiceId"`
	PatientName   string     `db:"patient_name" json:"patientName"`
	Gender        string     `db:"gender" json:"gender"`
	Age           Age        `db:"age" json:"age"`
	ContactNumber string     `db:"contact_number" json:"contactNumber"`
	ReferredByID  *uuid.UUID `db:"referred_by" json:"-"`

	// ReferredBy is joined in at read time from the current referrer row.
	// It is nil when the invoice has no referrer or the referrer row was
	// deleted after the invoice was created.
	ReferredBy *referrer.Referrer `json:"referredBy"`

	Tests []LineItem `json:"tests"`

	TotalAmount                float64 `db:"total_amount" json:"totalAmount"`
	HasReferrerDiscount        bool    `db:"has_referrer_discount" json:"hasReferrerDiscount"`
	ReferrerDiscountPercentage float64 `db:"referrer_discount_percentage" json:"referrerDiscountPercentage"`
	PriceAfterReferrerDiscount float64 `db:"price_after_referrer_discount" json:"priceAfterReferrerDiscount"`
	HasLabAdjustment           bool    `db:"has_lab_adjustment" json:"hasLabAdjustment"`
	LabAdjustmentAmount        float64 `db:"lab_adjustment_amount" json:"labAdjustmentAmount"`
	FinalPrice                 float64 `db:"final_price" json:"finalPrice"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
