package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/draftwire/draftwire/internal/db"
	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/models"
	"github.com/draftwire/draftwire/internal/ticket"
)

type mockClassifier struct {
	mu     sync.Mutex
	calls  []string
	result *llm.Classification
	err    error
}

func (m *mockClassifier) ClassifyIntent(ctx context.Context, transcript string) (*llm.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, transcript)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockClassifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockGenerator struct{}

func (mockGenerator) GenerateMockups(ctx context.Context, req llm.MockupRequest) ([]llm.Variant, error) {
	return []llm.Variant{{Name: "Minimal", HTML: "<div></div>", CSS: "div{}"}}, nil
}

const testWindow = 20 * time.Millisecond

func newPipeline(t *testing.T, classifier *mockClassifier) (*Pipeline, *gorm.DB, *ticket.Machine) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	machine, err := ticket.NewMachine(gdb, mockGenerator{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := New(Opts{DB: gdb, Classifier: classifier, Machine: machine, Window: testWindow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(p.Stop)
	return p, gdb, machine
}

func userEvent(text string) models.TranscriptEvent {
	return models.TranscriptEvent{
		ID:        text,
		Speaker:   models.SpeakerUser,
		Text:      text,
		IsFinal:   true,
		Timestamp: time.Now(),
	}
}

// waitForTickets polls until n tickets exist or the deadline passes.
func waitForTickets(t *testing.T, machine *ticket.Machine, n int) []models.Ticket {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tickets, err := machine.Tickets()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tickets) >= n {
			return tickets
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d ticket(s)", n)
	return nil
}

func TestPipeline_HighConfidenceCreatesTicket(t *testing.T) {
	classifier := &mockClassifier{result: &llm.Classification{
		IsUIRequest: true,
		Confidence:  0.85,
		Component:   "login form",
		Intent:      "improve login page design",
	}}
	p, _, machine := newPipeline(t, classifier)

	p.HandleTranscript(userEvent("We need a better login page"))

	tickets := waitForTickets(t, machine, 1)
	if tickets[0].Intent.Component != "login form" {
		t.Errorf("Component = %q, want login form", tickets[0].Intent.Component)
	}
	if tickets[0].Intent.SourceText != "We need a better login page" {
		t.Errorf("SourceText = %q", tickets[0].Intent.SourceText)
	}

	intents, err := p.Intents()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(intents) != 1 {
		t.Errorf("surfaced intents = %d, want 1", len(intents))
	}
}

func TestPipeline_LowConfidenceLeavesNoTrace(t *testing.T) {
	classifier := &mockClassifier{result: &llm.Classification{
		IsUIRequest: false,
		Confidence:  0.1,
	}}
	p, _, machine := newPipeline(t, classifier)

	p.HandleTranscript(userEvent("When is our next meeting?"))
	time.Sleep(5 * testWindow)

	if got := classifier.callCount(); got != 1 {
		t.Fatalf("classification calls = %d, want 1", got)
	}
	tickets, err := machine.Tickets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("tickets = %d, want 0", len(tickets))
	}
	intents, _ := p.Intents()
	if len(intents) != 0 {
		t.Errorf("intents = %d, want 0", len(intents))
	}
}

func TestPipeline_DebounceClassifiesLastFragment(t *testing.T) {
	classifier := &mockClassifier{result: &llm.Classification{
		IsUIRequest: true,
		Confidence:  0.9,
	}}
	p, _, machine := newPipeline(t, classifier)

	p.HandleTranscript(userEvent("the checkout"))
	time.Sleep(testWindow / 4)
	p.HandleTranscript(userEvent("the checkout flow needs fewer steps"))

	tickets := waitForTickets(t, machine, 1)
	if got := classifier.callCount(); got != 1 {
		t.Errorf("classification calls = %d, want 1", got)
	}
	if tickets[0].Intent.SourceText != "the checkout flow needs fewer steps" {
		t.Errorf("SourceText = %q, want last fragment", tickets[0].Intent.SourceText)
	}
}

func TestNew_Validation(t *testing.T) {
	gdb, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	machine, _ := ticket.NewMachine(gdb, mockGenerator{})
	classifier := &mockClassifier{}

	if _, err := New(Opts{Classifier: classifier, Machine: machine}); err == nil {
		t.Error("New accepted nil db")
	}
	if _, err := New(Opts{DB: gdb, Machine: machine}); err == nil {
		t.Error("New accepted nil classifier")
	}
	if _, err := New(Opts{DB: gdb, Classifier: classifier}); err == nil {
		t.Error("New accepted nil machine")
	}
}
