package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/labpilot/labpilot/internal/domain/catalog"
	"github.com/labpilot/labpilot/internal/domain/referrer"
)

// -- Mock Repository --

type mockRepo struct {
	invoices map[string]*Invoice
	taken    map[string]bool

	// insertDupes makes the next N Create calls fail with ErrDuplicateID,
	// simulating a concurrent writer landing the same ID after the
	// existence check passed.
	insertDupes int

	existsCalls int
	createCalls int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		invoices: make(map[string]*Invoice),
		taken:    make(map[string]bool),
	}
}

func (m *mockRepo) ExistsInvoiceID(_ context.Context, invoiceID string) (bool, error) {
	m.existsCalls++
	if m.taken[invoiceID] {
		return true, nil
	}
	_, ok := m.invoices[invoiceID]
	return ok, nil
}

func (m *mockRepo) Create(_ context.Context, inv *Invoice) error {
	m.createCalls++
	if m.insertDupes > 0 {
		m.insertDupes--
		return ErrDuplicateID
	}
	if m.taken[inv.InvoiceID] {
		return ErrDuplicateID
	}
	if _, ok := m.invoices[inv.InvoiceID]; ok {
		return ErrDuplicateID
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	cp := *inv
	cp.Tests = append([]LineItem(nil), inv.Tests...)
	m.invoices[inv.InvoiceID] = &cp
	return nil
}

func (m *mockRepo) GetByInvoiceID(_ context.Context, invoiceID string) (*Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	cp.Tests = append([]LineItem(nil), inv.Tests...)
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Invoice, error) {
	var out []*Invoice
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID > out[j].InvoiceID })
	return out, nil
}

// -- Mock reference sources --

type mockReferrers struct {
	items map[uuid.UUID]*referrer.Referrer
}

func (m *mockReferrers) Get(_ context.Context, id uuid.UUID) (*referrer.Referrer, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, referrer.ErrNotFound
	}
	return r, nil
}

func (m *mockReferrers) List(_ context.Context) ([]*referrer.Referrer, error) {
	var out []*referrer.Referrer
	for _, r := range m.items {
		out = append(out, r)
	}
	return out, nil
}

type mockTests struct {
	items map[uuid.UUID]*catalog.LabTest
}

func (m *mockTests) Get(_ context.Context, id uuid.UUID) (*catalog.LabTest, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return t, nil
}

func (m *mockTests) List(_ context.Context) ([]*catalog.LabTest, error) {
	var out []*catalog.LabTest
	for _, t := range m.items {
		out = append(out, t)
	}
	return out, nil
}

// -- Fixture --

type fixture struct {
	svc    *Service
	repo   *mockRepo
	refID  uuid.UUID
	testID uuid.UUID
	clock  *fakeClock
	sleeps []time.Duration
}

type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newMockRepo(),
		refID:  uuid.New(),
		testID: uuid.New(),
		clock: &fakeClock{
			t:    time.Date(2026, 8, 28, 13, 5, 9, 987*int(time.Millisecond), time.UTC),
			step: time.Second,
		},
	}
	refs := &mockReferrers{items: map[uuid.UUID]*referrer.Referrer{
		f.refID: {ID: f.refID, Name: "Dr. Rahman", CommissionType: referrer.CommissionPercentage, CommissionValue: 10, IsActive: true},
	}}
	tests := &mockTests{items: map[uuid.UUID]*catalog.LabTest{
		f.testID: {ID: f.testID, Name: "CBC", Price: 350},
	}}
	f.svc = NewService(f.repo, refs, tests, "https://labpilotpro.com/")
	f.svc.now = f.clock.Now
	f.svc.sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

func (f *fixture) validInput() CreateInput {
	return CreateInput{
		PatientName:   "Anika Chowdhury",
		Gender:        "female",
		Age:           "34",
		ContactNumber: "01711111111",
		Tests: []LineItemInput{
			{TestID: f.testID.String(), Name: "CBC", Price: 350},
		},
		TotalAmount: 350,
		FinalPrice:  350,
	}
}

// -- Tests --

func TestCreate_GeneratesTimeDerivedID(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.Create(context.Background(), f.validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.InvoiceID != "26082813050998" {
		t.Fatalf("expected invoice ID 26082813050998, got %s", inv.InvoiceID)
	}
	if f.svc.Link(inv.InvoiceID) != "https://labpilotpro.com/26082813050998" {
		t.Fatalf("unexpected link %s", f.svc.Link(inv.InvoiceID))
	}
	if len(f.sleeps) != 0 {
		t.Fatalf("expected no retry delay on first attempt, got %d sleeps", len(f.sleeps))
	}
}

func TestCreate_RequiresPatientNameAndTests(t *testing.T) {
	f := newFixture()

	in := f.validInput()
	in.PatientName = "   "
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for blank patient name, got %v", err)
	}

	in = f.validInput()
	in.Tests = nil
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty test list, got %v", err)
	}
}

func TestCreate_RejectsUnknownTest(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.Tests[0].TestID = uuid.New().String()
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown test, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Fatalf("nothing should be persisted for an invalid submission")
	}
}

func TestCreate_RejectsMalformedTestID(t *testing.T) {
	f := newFixture()
	in := f.validInput()
	in.Tests[0].TestID = "not-a-uuid"
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for malformed test ID, got %v", err)
	}
}

func TestCreate_ReferrerValidation(t *testing.T) {
	f := newFixture()

	in := f.validInput()
	in.ReferredBy = "not-a-uuid"
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for malformed referrer ID, got %v", err)
	}

	in = f.validInput()
	in.ReferredBy = uuid.New().String()
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown referrer, got %v", err)
	}

	in = f.validInput()
	in.ReferredBy = f.refID.String()
	inv, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ReferredByID == nil || *inv.ReferredByID != f.refID {
		t.Fatalf("expected referrer %s to be recorded", f.refID)
	}
}

func TestCreate_SeedsReportOnlyForSchemaTests(t *testing.T) {
	f := newFixture()
	schemaID := uuid.New()
	in := f.validInput()
	in.Tests = []LineItemInput{
		{TestID: f.testID.String(), Name: "CBC", Price: 200},
		{TestID: f.testID.String(), Name: "CBC with schema", Price: 150, SchemaID: schemaID.String()},
	}
	in.TotalAmount = 350
	in.FinalPrice = 350

	inv, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plain := inv.Tests[0]
	if plain.SchemaID != nil || plain.Report != nil || plain.IsCompleted != nil {
		t.Fatalf("schema-less item must carry no report state: %+v", plain)
	}
	withSchema := inv.Tests[1]
	if withSchema.SchemaID == nil || *withSchema.SchemaID != schemaID {
		t.Fatalf("expected schema ID %s on second item", schemaID)
	}
	if withSchema.Report == nil || len(withSchema.Report) != 0 {
		t.Fatalf("expected an empty report object, got %v", withSchema.Report)
	}
	if withSchema.IsCompleted == nil || *withSchema.IsCompleted {
		t.Fatalf("expected isCompleted=false, got %v", withSchema.IsCompleted)
	}
}

func TestCreate_PricingValidation(t *testing.T) {
	f := newFixture()

	in := f.validInput()
	in.TotalAmount = 400
	in.FinalPrice = 400
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for total mismatch, got %v", err)
	}

	// Rounding noise inside the tolerance is accepted.
	in = f.validInput()
	in.TotalAmount = 350.005
	in.FinalPrice = 350.005
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("expected rounding noise to pass, got %v", err)
	}
}

func TestCreate_DiscountChain(t *testing.T) {
	f := newFixture()

	in := f.validInput()
	in.HasReferrerDiscount = true
	in.ReferrerDiscountPercentage = 10
	in.PriceAfterReferrerDiscount = 315
	in.FinalPrice = 315
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in = f.validInput()
	in.HasReferrerDiscount = true
	in.ReferrerDiscountPercentage = 10
	in.PriceAfterReferrerDiscount = 300
	in.FinalPrice = 300
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong discounted price, got %v", err)
	}

	in = f.validInput()
	in.HasReferrerDiscount = true
	in.ReferrerDiscountPercentage = 120
	in.PriceAfterReferrerDiscount = 0
	in.FinalPrice = 0
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for out-of-range percentage, got %v", err)
	}

	in = f.validInput()
	in.HasReferrerDiscount = true
	in.ReferrerDiscountPercentage = 10
	in.PriceAfterReferrerDiscount = 315
	in.HasLabAdjustment = true
	in.LabAdjustmentAmount = 15
	in.FinalPrice = 300
	if _, err := f.svc.Create(context.Background(), in); err != nil {
		t.Fatalf("unexpected error for full discount chain: %v", err)
	}

	in = f.validInput()
	in.HasLabAdjustment = true
	in.LabAdjustmentAmount = 400
	in.FinalPrice = -50
	if _, err := f.svc.Create(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for negative final price, got %v", err)
	}
}

func TestCreate_RetriesOnCollision(t *testing.T) {
	f := newFixture()
	f.repo.taken[NewInvoiceID(f.clock.t)] = true

	inv, err := f.svc.Create(context.Background(), f.validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.InvoiceID != "26082813051098" {
		t.Fatalf("expected the second candidate, got %s", inv.InvoiceID)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != 10*time.Millisecond {
		t.Fatalf("expected one 10ms delay between attempts, got %v", f.sleeps)
	}
}

func TestCreate_RetriesOnInsertRace(t *testing.T) {
	f := newFixture()
	f.repo.insertDupes = 1

	inv, err := f.svc.Create(context.Background(), f.validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.createCalls != 2 {
		t.Fatalf("expected a second insert attempt, got %d", f.repo.createCalls)
	}
	if inv.InvoiceID != "26082813051098" {
		t.Fatalf("expected the second candidate, got %s", inv.InvoiceID)
	}
}

func TestCreate_ExhaustsAttempts(t *testing.T) {
	f := newFixture()
	f.clock.step = 0 // clock frozen: every attempt produces the same ID
	f.repo.taken[NewInvoiceID(f.clock.t)] = true

	_, err := f.svc.Create(context.Background(), f.validInput())
	if !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
	if f.repo.existsCalls != 5 {
		t.Fatalf("expected 5 attempts, got %d", f.repo.existsCalls)
	}
	if len(f.sleeps) != 4 {
		t.Fatalf("expected 4 delays between 5 attempts, got %d", len(f.sleeps))
	}
	if f.repo.createCalls != 0 {
		t.Fatalf("no insert should be attempted while every ID is taken")
	}
}

func TestLineItems_SnapshotSurviveCatalogEdits(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.Create(context.Background(), f.validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutate the catalog entry after creation; the stored snapshot must
	// keep the price charged at the time.
	f.svc.tests.(*mockTests).items[f.testID].Price = 999

	got, err := f.svc.GetByInvoiceID(context.Background(), inv.InvoiceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tests[0].Price != 350 {
		t.Fatalf("expected snapshot price 350, got %v", got.Tests[0].Price)
	}
}

func TestGetByInvoiceID_NotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.GetByInvoiceID(context.Background(), "26010101010100"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequiredData_EmptySlicesNotNil(t *testing.T) {
	f := newFixture()
	f.svc.referrers = &mockReferrers{items: map[uuid.UUID]*referrer.Referrer{}}
	f.svc.tests = &mockTests{items: map[uuid.UUID]*catalog.LabTest{}}

	data, err := f.svc.RequiredData(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Referrers == nil || data.Tests == nil {
		t.Fatalf("expected empty slices, not nil")
	}
}

func TestAge_UnmarshalJSON(t *testing.T) {
	var in CreateInput
	if err := json.Unmarshal([]byte(`{"age": 34}`), &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Age != "34" {
		t.Fatalf("expected numeric age to coerce to %q, got %q", "34", in.Age)
	}
	if err := json.Unmarshal([]byte(`{"age": " 34 "}`), &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Age != "34" {
		t.Fatalf("expected string age to be trimmed, got %q", in.Age)
	}
	if err := json.Unmarshal([]byte(`{"age": null}`), &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Age != "" {
		t.Fatalf("expected null age to be empty, got %q", in.Age)
	}
}
