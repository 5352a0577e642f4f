// Package ticket owns the ticket lifecycle: creation from a detected
// intent, asynchronous mockup generation, variant selection, and the
// export transitions.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/models"
)

// fallbackComponent labels tickets whose intent has no component field.
const fallbackComponent = "UI component"

var (
	// ErrNotFound reports an unknown ticket id.
	ErrNotFound = errors.New("ticket: not found")

	// ErrNotReady reports an export attempt on a ticket that is not in
	// the ready state. An export already in flight holds the ticket in
	// exporting, so a second click lands here instead of firing a second
	// issue-creation call.
	ErrNotReady = errors.New("ticket: not in ready state")

	// ErrNotPending reports a retry attempt on a ticket that is not in
	// the pending state.
	ErrNotPending = errors.New("ticket: not in pending state")
)

// Generator abstracts the mockup-generation model call.
type Generator interface {
	GenerateMockups(ctx context.Context, req llm.MockupRequest) ([]llm.Variant, error)
}

// Machine drives tickets through
// pending → generating → ready → exporting → exported, with failure edges
// generating → pending and exporting → ready. Generation runs
// asynchronously; results are applied keyed by the ticket they were opened
// for, so out-of-order completions only ever touch their own ticket.
type Machine struct {
	db        *gorm.DB
	generator Generator

	// mu serializes state transitions across HTTP handlers, generation
	// goroutines, and the sweeper.
	mu sync.Mutex
}

// NewMachine creates a Machine.
func NewMachine(db *gorm.DB, generator Generator) (*Machine, error) {
	if db == nil {
		return nil, fmt.Errorf("ticket: db is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("ticket: generator is required")
	}
	return &Machine{db: db, generator: generator}, nil
}

// CreateFromIntent allocates a ticket in state generating and immediately
// triggers mockup generation in the background.
func (m *Machine) CreateFromIntent(intent models.DetectedIntent) (*models.Ticket, error) {
	now := time.Now()
	t := models.Ticket{
		ID:        uuid.NewString(),
		Intent:    intent,
		Status:    models.StatusGenerating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}
	go m.generate(t.ID)
	return &t, nil
}

// Retry re-runs generation for a pending ticket. Manual retry is the only
// edge back out of pending.
func (m *Machine) Retry(ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.load(ticketID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusPending {
		return ErrNotPending
	}
	if err := m.setStatus(ticketID, models.StatusGenerating); err != nil {
		return err
	}
	go m.generate(ticketID)
	return nil
}

// generate runs the mockup-generation call for one ticket and applies the
// outcome. Generation failures are expected and recoverable: the ticket
// reverts to pending and stays visible for manual retry.
func (m *Machine) generate(ticketID string) {
	t, err := m.Ticket(ticketID)
	if err != nil {
		log.Printf("ticket: generate %s: %v", ticketID, err)
		return
	}

	component := t.Intent.Component
	if component == "" {
		component = fallbackComponent
	}
	intentText := t.Intent.Intent
	if intentText == "" {
		intentText = t.Intent.SourceText
	}
	variants, err := m.generator.GenerateMockups(context.Background(), llm.MockupRequest{
		Component: component,
		Intent:    intentText,
		Context:   t.Intent.Context,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		log.Printf("ticket: generate %s: %v", ticketID, err)
		if serr := m.setStatus(ticketID, models.StatusPending); serr != nil {
			log.Printf("ticket: revert %s: %v", ticketID, serr)
		}
		return
	}

	rows := make([]models.MockupVariant, len(variants))
	for i, v := range variants {
		rows[i] = models.MockupVariant{
			TicketID: ticketID,
			Position: i,
			Name:     v.Name,
			Markup:   v.HTML,
			Style:    v.CSS,
		}
	}
	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", ticketID).Delete(&models.MockupVariant{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		selected := 0
		return tx.Model(&models.Ticket{}).Where("id = ?", ticketID).Updates(map[string]any{
			"status":           models.StatusReady,
			"selected_variant": &selected,
			"updated_at":       time.Now(),
		}).Error
	})
	if err != nil {
		log.Printf("ticket: apply variants for %s: %v", ticketID, err)
	}
}

// SelectVariant records the display selection for a ticket. An
// out-of-range index is a no-op: a correctly constrained UI never sends
// one.
func (m *Machine) SelectVariant(ticketID string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.Ticket(ticketID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.Variants) {
		return nil
	}
	return m.db.Model(&models.Ticket{}).Where("id = ?", ticketID).
		Update("selected_variant", &index).Error
}

// BeginExport transitions a ready ticket to exporting and returns it with
// variants loaded. Any other starting state is ErrNotReady.
func (m *Machine) BeginExport(ticketID string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.Ticket(ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusReady {
		return nil, ErrNotReady
	}
	if err := m.setStatus(ticketID, models.StatusExporting); err != nil {
		return nil, err
	}
	t.Status = models.StatusExporting
	return t, nil
}

// FailExport returns an exporting ticket to ready after a failed export.
func (m *Machine) FailExport(ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.load(ticketID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusExporting {
		return nil
	}
	return m.setStatus(ticketID, models.StatusReady)
}

// MarkExported completes an export. Valid only from exporting; location
// must name where the issue landed.
func (m *Machine) MarkExported(ticketID, location string) error {
	if location == "" {
		return fmt.Errorf("ticket: exported location is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.load(ticketID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusExporting {
		return fmt.Errorf("ticket: mark exported from %s", t.Status)
	}
	return m.db.Model(&models.Ticket{}).Where("id = ?", ticketID).Updates(map[string]any{
		"status":            models.StatusExported,
		"exported_location": location,
		"updated_at":        time.Now(),
	}).Error
}

// Ticket returns one ticket with its variants in generation order.
func (m *Machine) Ticket(ticketID string) (*models.Ticket, error) {
	var t models.Ticket
	err := m.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&t, "id = ?", ticketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ticket: load %s: %w", ticketID, err)
	}
	return &t, nil
}

// Tickets returns all tickets, newest first, with variants loaded.
func (m *Machine) Tickets() ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := m.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("created_at DESC").Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("ticket: list: %w", err)
	}
	return tickets, nil
}

// RevertStale returns tickets stuck mid-transition past the cutoff to
// their pre-transition state: generating → pending, exporting → ready.
// Covers generation goroutines lost to a crash of their upstream call.
func (m *Machine) RevertStale(olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var total int64
	res := m.db.Model(&models.Ticket{}).
		Where("status = ? AND updated_at < ?", models.StatusGenerating, cutoff).
		Updates(map[string]any{"status": models.StatusPending, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("ticket: revert stale: %w", res.Error)
	}
	total += res.RowsAffected
	res = m.db.Model(&models.Ticket{}).
		Where("status = ? AND updated_at < ?", models.StatusExporting, cutoff).
		Updates(map[string]any{"status": models.StatusReady, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("ticket: revert stale: %w", res.Error)
	}
	total += res.RowsAffected
	return int(total), nil
}

// load fetches a ticket without variants.
func (m *Machine) load(ticketID string) (*models.Ticket, error) {
	var t models.Ticket
	err := m.db.First(&t, "id = ?", ticketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ticket: load %s: %w", ticketID, err)
	}
	return &t, nil
}

// setStatus updates a ticket's status column. Callers hold m.mu.
func (m *Machine) setStatus(ticketID, status string) error {
	return m.db.Model(&models.Ticket{}).Where("id = ?", ticketID).Updates(map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}
