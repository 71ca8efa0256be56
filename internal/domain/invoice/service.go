package invoice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/labpilot/labpilot/internal/domain/catalog"
	"github.com/labpilot/labpilot/internal/domain/referrer"
)

var (
	ErrNotFound    = errors.New("invoice not found")
	ErrInvalid     = errors.New("invalid invoice")
	ErrDuplicateID = errors.New("invoice id already exists")

	// ErrIDExhausted is returned when every ID generation attempt collided
	// with an existing invoice.
	ErrIDExhausted = errors.New("could not generate a unique invoice id")
)

const (
	idAttempts   = 5
	idRetryDelay = 10 * time.Millisecond

	// Submitted amounts are accepted when they match the recomputed value
	// within this tolerance, absorbing client-side float rounding.
	priceTolerance = 0.01
)

// ReferrerSource supplies the referrer lookups the invoice workflow needs.
// *referrer.Service satisfies it.
type ReferrerSource interface {
	Get(ctx context.Context, id uuid.UUID) (*referrer.Referrer, error)
	List(ctx context.Context) ([]*referrer.Referrer, error)
}

// TestSource supplies the catalog lookups the invoice workflow needs.
// *catalog.Service satisfies it.
type TestSource interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.LabTest, error)
	List(ctx context.Context) ([]*catalog.LabTest, error)
}

type Service struct {
	repo      Repository
	referrers ReferrerSource
	tests     TestSource
	linkBase  string

	// now and sleep are swapped out in tests for deterministic ID
	// generation and collision handling.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewService(repo Repository, referrers ReferrerSource, tests TestSource, linkBase string) *Service {
	return &Service{
		repo:      repo,
		referrers: referrers,
		tests:     tests,
		linkBase:  linkBase,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

type LineItemInput struct {
	TestID   string  `json:"testId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	SchemaID string  `json:"schemaId"`
}

type CreateInput struct {
	PatientName   string          `json:"patientName"`
	Gender        string          `json:"gender"`
	Age           Age             `json:"age"`
	ContactNumber string          `json:"contactNumber"`
	ReferredBy    string          `json:"referredBy"`
	Tests         []LineItemInput `json:"tests"`

	TotalAmount                float64 `json:"totalAmount"`
	HasReferrerDiscount        bool    `json:"hasReferrerDiscount"`
	ReferrerDiscountPercentage float64 `json:"referrerDiscountPercentage"`
	PriceAfterReferrerDiscount float64 `json:"priceAfterReferrerDiscount"`
	HasLabAdjustment           bool    `json:"hasLabAdjustment"`
	LabAdjustmentAmount        float64 `json:"labAdjustmentAmount"`
	FinalPrice                 float64 `json:"finalPrice"`
}

// Create validates the submission, snapshots the referenced catalog tests
// into line items, and persists the invoice under a freshly generated
// time-derived ID. On an ID collision it retries with a short delay, up to
// idAttempts times, then gives up with ErrIDExhausted.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	inv, err := s.buildInvoice(ctx, in)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < idAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(idRetryDelay)
		}
		candidate := NewInvoiceID(s.now())

		exists, err := s.repo.ExistsInvoiceID(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		inv.ID = uuid.New()
		inv.InvoiceID = candidate
		err = s.repo.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		// A concurrent writer can land the same ID between the existence
		// check and the insert; that counts as a collision too.
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		return nil, err
	}
	return nil, ErrIDExhausted
}

func (s *Service) buildInvoice(ctx context.Context, in CreateInput) (*Invoice, error) {
	in.PatientName = strings.TrimSpace(in.PatientName)
	if in.PatientName == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrInvalid)
	}
	if len(in.Tests) == 0 {
		return nil, fmt.Errorf("%w: at least one test is required", ErrInvalid)
	}

	inv := &Invoice{
		PatientName:   in.PatientName,
		Gender:        strings.TrimSpace(in.Gender),
		Age:           in.Age,
		ContactNumber: strings.TrimSpace(in.ContactNumber),

		TotalAmount:                in.TotalAmount,
		HasReferrerDiscount:        in.HasReferrerDiscount,
		ReferrerDiscountPercentage: in.ReferrerDiscountPercentage,
		PriceAfterReferrerDiscount: in.PriceAfterReferrerDiscount,
		HasLabAdjustment:           in.HasLabAdjustment,
		LabAdjustmentAmount:        in.LabAdjustmentAmount,
		FinalPrice:                 in.FinalPrice,
	}

	if ref := strings.TrimSpace(in.ReferredBy); ref != "" {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid referrer ID format", ErrInvalid)
		}
		if _, err := s.referrers.Get(ctx, id); err != nil {
			if errors.Is(err, referrer.ErrNotFound) {
				return nil, fmt.Errorf("%w: referrer not found", ErrInvalid)
			}
			return nil, err
		}
		inv.ReferredByID = &id
	}

	inv.Tests = make([]LineItem, 0, len(in.Tests))
	for _, t := range in.Tests {
		item, err := s.buildLineItem(ctx, t)
		if err != nil {
			return nil, err
		}
		inv.Tests = append(inv.Tests, item)
	}

	if err := validatePricing(in, inv.Tests); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) buildLineItem(ctx context.Context, in LineItemInput) (LineItem, error) {
	testID, err := uuid.Parse(strings.TrimSpace(in.TestID))
	if err != nil {
		return LineItem{}, fmt.Errorf("%w: invalid test ID format", ErrInvalid)
	}
	if _, err := s.tests.Get(ctx, testID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return LineItem{}, fmt.Errorf("%w: test %s not found", ErrInvalid, testID)
		}
		return LineItem{}, err
	}
	if in.Price < 0 {
		return LineItem{}, fmt.Errorf("%w: test price cannot be negative", ErrInvalid)
	}

	item := LineItem{
		TestID: testID,
		Name:   strings.TrimSpace(in.Name),
		Price:  in.Price,
	}
	if sch := strings.TrimSpace(in.SchemaID); sch != "" {
		schemaID, err := uuid.Parse(sch)
		if err != nil {
			return LineItem{}, fmt.Errorf("%w: invalid schema ID format", ErrInvalid)
		}
		item.SchemaID = &schemaID
		item.Report = map[string]interface{}{}
		completed := false
		item.IsCompleted = &completed
	}
	return item, nil
}

// validatePricing recomputes the discount chain from the submitted line
// items and rejects the invoice when any submitted amount disagrees with
// the recomputed one beyond priceTolerance.
func validatePricing(in CreateInput, items []LineItem) error {
	var total float64
	for _, item := range items {
		total += item.Price
	}
	if !closeEnough(total, in.TotalAmount) {
		return fmt.Errorf("%w: total amount does not match the sum of test prices", ErrInvalid)
	}

	afterDiscount := in.TotalAmount
	if in.HasReferrerDiscount {
		if in.ReferrerDiscountPercentage < 0 || in.ReferrerDiscountPercentage > 100 {
			return fmt.Errorf("%w: referrer discount percentage must be between 0 and 100", ErrInvalid)
		}
		afterDiscount = in.TotalAmount * (1 - in.ReferrerDiscountPercentage/100)
		if !closeEnough(afterDiscount, in.PriceAfterReferrerDiscount) {
			return fmt.Errorf("%w: price after referrer discount does not match", ErrInvalid)
		}
		afterDiscount = in.PriceAfterReferrerDiscount
	}

	final := afterDiscount
	if in.HasLabAdjustment {
		final = afterDiscount - in.LabAdjustmentAmount
	}
	if !closeEnough(final, in.FinalPrice) {
		return fmt.Errorf("%w: final price does not match", ErrInvalid)
	}
	if in.FinalPrice < 0 {
		return fmt.Errorf("%w: final price cannot be negative", ErrInvalid)
	}
	return nil
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= priceTolerance
}

func (s *Service) GetByInvoiceID(ctx context.Context, invoiceID string) (*Invoice, error) {
	return s.repo.GetByInvoiceID(ctx, invoiceID)
}

func (s *Service) List(ctx context.Context) ([]*Invoice, error) {
	return s.repo.List(ctx)
}

// Link builds the shareable report URL for an invoice.
func (s *Service) Link(invoiceID string) string {
	return s.linkBase + invoiceID
}

// RequiredData bundles the reference lists the invoice entry form needs.
type RequiredData struct {
	Referrers []*referrer.Referrer `json:"referrers"`
	Tests     []*catalog.LabTest   `json:"tests"`
}

func (s *Service) RequiredData(ctx context.Context) (*RequiredData, error) {
	refs, err := s.referrers.List(ctx)
	if err != nil {
		return nil, err
	}
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []*referrer.Referrer{}
	}
	if tests == nil {
		tests = []*catalog.LabTest{}
	}
	return &RequiredData{Referrers: refs, Tests: tests}, nil
}
