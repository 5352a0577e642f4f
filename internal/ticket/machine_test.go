package ticket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Ticket{}, &models.MockupVariant{}, &models.DetectedIntent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// mockGenerator returns fixed variants or an error, and counts calls.
type mockGenerator struct {
	mu       sync.Mutex
	calls    []llm.MockupRequest
	variants []llm.Variant
	err      error
}

func (m *mockGenerator) GenerateMockups(ctx context.Context, req llm.MockupRequest) ([]llm.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.variants, nil
}

func (m *mockGenerator) lastCall(t *testing.T) llm.MockupRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		t.Fatal("generator was never called")
	}
	return m.calls[len(m.calls)-1]
}

func twoVariants() []llm.Variant {
	return []llm.Variant{
		{Name: "Minimal", HTML: "<form></form>", CSS: "form{}"},
		{Name: "Bold", HTML: "<form class=b></form>", CSS: ".b{}"},
	}
}

func testIntent() models.DetectedIntent {
	return models.DetectedIntent{
		ID:          "intent-1",
		IsUIRequest: true,
		Confidence:  0.85,
		Component:   "login form",
		Intent:      "improve login page design",
		SourceText:  "We need a better login page",
		CreatedAt:   time.Now(),
	}
}

// waitForStatus polls until the ticket reaches status or the deadline hits.
func waitForStatus(t *testing.T, m *Machine, id, status string) *models.Ticket {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ticket, err := m.Ticket(id)
		if err != nil {
			t.Fatalf("load ticket: %v", err)
		}
		if ticket.Status == status {
			return ticket
		}
		time.Sleep(5 * time.Millisecond)
	}
	ticket, _ := m.Ticket(id)
	t.Fatalf("ticket %s status = %s, want %s", id, ticket.Status, status)
	return nil
}

func TestMachine_CreateFromIntent(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, err := NewMachine(testDB(t), gen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ticket, err := m.CreateFromIntent(testIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.ID == "" {
		t.Error("ticket id is empty")
	}
	if ticket.Status != models.StatusGenerating {
		t.Errorf("Status = %s, want %s", ticket.Status, models.StatusGenerating)
	}
	if ticket.Intent.SourceText != "We need a better login page" {
		t.Errorf("embedded intent SourceText = %q", ticket.Intent.SourceText)
	}

	got := waitForStatus(t, m, ticket.ID, models.StatusReady)
	if len(got.Variants) != 2 {
		t.Fatalf("len(Variants) = %d, want 2", len(got.Variants))
	}
	if got.SelectedVariant == nil || *got.SelectedVariant != 0 {
		t.Errorf("SelectedVariant = %v, want 0", got.SelectedVariant)
	}
	if got.Variants[0].Name != "Minimal" {
		t.Errorf("Variants[0].Name = %q, want Minimal", got.Variants[0].Name)
	}

	call := gen.lastCall(t)
	if call.Component != "login form" {
		t.Errorf("generation component = %q, want %q", call.Component, "login form")
	}
	if call.Intent != "improve login page design" {
		t.Errorf("generation intent = %q", call.Intent)
	}
}

func TestMachine_GenerationFallbacks(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	intent := testIntent()
	intent.Component = ""
	intent.Intent = ""
	ticket, err := m.CreateFromIntent(intent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForStatus(t, m, ticket.ID, models.StatusReady)

	call := gen.lastCall(t)
	if call.Component != fallbackComponent {
		t.Errorf("component = %q, want fallback %q", call.Component, fallbackComponent)
	}
	if call.Intent != "We need a better login page" {
		t.Errorf("intent = %q, want raw transcript fallback", call.Intent)
	}
}

func TestMachine_GenerationFailureRevertsToPending(t *testing.T) {
	gen := &mockGenerator{err: fmt.Errorf("model unavailable")}
	m, _ := NewMachine(testDB(t), gen)

	ticket, err := m.CreateFromIntent(testIntent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := waitForStatus(t, m, ticket.ID, models.StatusPending)
	if len(got.Variants) != 0 {
		t.Errorf("len(Variants) = %d, want 0 after failure", len(got.Variants))
	}
}

func TestMachine_RetryFromPending(t *testing.T) {
	gen := &mockGenerator{err: fmt.Errorf("model unavailable")}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusPending)

	gen.mu.Lock()
	gen.err = nil
	gen.variants = twoVariants()
	gen.mu.Unlock()

	if err := m.Retry(ticket.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := waitForStatus(t, m, ticket.ID, models.StatusReady)
	if len(got.Variants) != 2 {
		t.Errorf("len(Variants) = %d, want 2 after retry", len(got.Variants))
	}
}

func TestMachine_RetryOnlyFromPending(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusReady)

	if err := m.Retry(ticket.ID); err != ErrNotPending {
		t.Errorf("Retry on ready ticket = %v, want ErrNotPending", err)
	}
}

func TestMachine_SelectVariant(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusReady)

	if err := m.SelectVariant(ticket.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := m.Ticket(ticket.ID)
	if got.SelectedVariant == nil || *got.SelectedVariant != 1 {
		t.Errorf("SelectedVariant = %v, want 1", got.SelectedVariant)
	}

	// Out-of-range selections are no-ops.
	for _, index := range []int{-1, 2, 99} {
		if err := m.SelectVariant(ticket.ID, index); err != nil {
			t.Fatalf("SelectVariant(%d): %v", index, err)
		}
		got, _ = m.Ticket(ticket.ID)
		if *got.SelectedVariant != 1 {
			t.Errorf("SelectVariant(%d) changed selection to %d", index, *got.SelectedVariant)
		}
	}
}

func TestMachine_ExportTransitions(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusReady)

	got, err := m.BeginExport(ticket.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.StatusExporting {
		t.Errorf("Status = %s, want %s", got.Status, models.StatusExporting)
	}

	// A second export attempt while one is in flight is rejected.
	if _, err := m.BeginExport(ticket.ID); err != ErrNotReady {
		t.Errorf("second BeginExport = %v, want ErrNotReady", err)
	}

	if err := m.MarkExported(ticket.ID, "https://linear.app/issue/DES-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final, _ := m.Ticket(ticket.ID)
	if final.Status != models.StatusExported {
		t.Errorf("Status = %s, want %s", final.Status, models.StatusExported)
	}
	if final.ExportedLocation != "https://linear.app/issue/DES-1" {
		t.Errorf("ExportedLocation = %q", final.ExportedLocation)
	}
}

func TestMachine_ExportedRequiresReadyPath(t *testing.T) {
	gen := &mockGenerator{err: fmt.Errorf("down")}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusPending)

	// Neither pending nor generating tickets can start an export, so a
	// ticket can never reach exported without passing through ready.
	if _, err := m.BeginExport(ticket.ID); err != ErrNotReady {
		t.Errorf("BeginExport from pending = %v, want ErrNotReady", err)
	}
	if err := m.MarkExported(ticket.ID, "somewhere"); err == nil {
		t.Error("MarkExported from pending succeeded, want error")
	}
}

func TestMachine_FailExportRevertsToReady(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusReady)

	if _, err := m.BeginExport(ticket.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.FailExport(ticket.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := m.Ticket(ticket.ID)
	if got.Status != models.StatusReady {
		t.Errorf("Status = %s, want %s", got.Status, models.StatusReady)
	}
}

func TestMachine_MarkExportedRequiresLocation(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	ticket, _ := m.CreateFromIntent(testIntent())
	waitForStatus(t, m, ticket.ID, models.StatusReady)
	m.BeginExport(ticket.ID)

	if err := m.MarkExported(ticket.ID, ""); err == nil {
		t.Error("MarkExported with empty location succeeded, want error")
	}
}

func TestMachine_NotFound(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	if _, err := m.Ticket("missing"); err != ErrNotFound {
		t.Errorf("Ticket = %v, want ErrNotFound", err)
	}
	if err := m.Retry("missing"); err != ErrNotFound {
		t.Errorf("Retry = %v, want ErrNotFound", err)
	}
	if _, err := m.BeginExport("missing"); err != ErrNotFound {
		t.Errorf("BeginExport = %v, want ErrNotFound", err)
	}
}

func TestMachine_DuplicateIntentsMakeDuplicateTickets(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	m, _ := NewMachine(testDB(t), gen)

	// Re-detecting the same component creates a brand-new ticket; the
	// machine never dedupes.
	first, _ := m.CreateFromIntent(testIntent())
	second, _ := m.CreateFromIntent(testIntent())
	if first.ID == second.ID {
		t.Fatal("duplicate intents share a ticket id")
	}
	tickets, err := m.Tickets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tickets) != 2 {
		t.Errorf("len(Tickets) = %d, want 2", len(tickets))
	}
}

func TestMachine_RevertStale(t *testing.T) {
	gen := &mockGenerator{variants: twoVariants()}
	db := testDB(t)
	m, _ := NewMachine(db, gen)

	stale := time.Now().Add(-1 * time.Hour)
	seed := []models.Ticket{
		{ID: "t-gen", Status: models.StatusGenerating, CreatedAt: stale, UpdatedAt: stale},
		{ID: "t-exp", Status: models.StatusExporting, CreatedAt: stale, UpdatedAt: stale},
		{ID: "t-ok", Status: models.StatusReady, CreatedAt: stale, UpdatedAt: stale},
		{ID: "t-fresh", Status: models.StatusGenerating, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := m.RevertStale(10 * time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("reverted = %d, want 2", n)
	}

	for id, want := range map[string]string{
		"t-gen":   models.StatusPending,
		"t-exp":   models.StatusReady,
		"t-ok":    models.StatusReady,
		"t-fresh": models.StatusGenerating,
	} {
		got, err := m.Ticket(id)
		if err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
		if got.Status != want {
			t.Errorf("%s status = %s, want %s", id, got.Status, want)
		}
	}
}
