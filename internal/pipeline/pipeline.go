// Package pipeline wires the intent gate into the ticket machine:
// transcript fragment → debounce + classify → [confidence] → ticket.
package pipeline

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/draftwire/draftwire/internal/intent"
	"github.com/draftwire/draftwire/internal/models"
	"github.com/draftwire/draftwire/internal/ticket"
)

// Opts holds parameters for creating a Pipeline.
type Opts struct {
	DB         *gorm.DB
	Classifier intent.Classifier
	Machine    *ticket.Machine
	Window     time.Duration // debounce window, defaults to intent.DefaultWindow
}

// Pipeline consumes transcript events and produces surfaced intents and
// auto-created tickets.
type Pipeline struct {
	db      *gorm.DB
	machine *ticket.Machine
	gate    *intent.Gate
}

// New creates a Pipeline.
func New(opts Opts) (*Pipeline, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("pipeline: db is required")
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("pipeline: classifier is required")
	}
	if opts.Machine == nil {
		return nil, fmt.Errorf("pipeline: machine is required")
	}
	p := &Pipeline{db: opts.DB, machine: opts.Machine}
	p.gate = intent.NewGate(intent.Opts{
		Classifier: opts.Classifier,
		Window:     opts.Window,
		OnIntent:   p.surfaceIntent,
		OnTicket:   p.createTicket,
	})
	return p, nil
}

// HandleTranscript feeds one transcript event into the gate.
func (p *Pipeline) HandleTranscript(ev models.TranscriptEvent) {
	p.gate.HandleTranscript(ev)
}

// Stop cancels any pending debounce timer.
func (p *Pipeline) Stop() {
	p.gate.Stop()
}

// Intents returns surfaced intents, newest first.
func (p *Pipeline) Intents() ([]models.DetectedIntent, error) {
	var intents []models.DetectedIntent
	if err := p.db.Order("created_at DESC").Find(&intents).Error; err != nil {
		return nil, fmt.Errorf("pipeline: list intents: %w", err)
	}
	return intents, nil
}

// surfaceIntent records a surfaced intent for UI correlation.
func (p *Pipeline) surfaceIntent(d models.DetectedIntent) {
	if err := p.db.Create(&d).Error; err != nil {
		log.Printf("pipeline: store intent: %v", err)
	}
}

// createTicket hands a high-confidence intent to the ticket machine.
func (p *Pipeline) createTicket(d models.DetectedIntent) {
	if _, err := p.machine.CreateFromIntent(d); err != nil {
		log.Printf("pipeline: create ticket: %v", err)
	}
}
