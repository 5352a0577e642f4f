// Package intent decides, per finalized user utterance, whether it
// constitutes a UI request worth tracking.
package intent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/models"
)

// DefaultWindow is the debounce quiet period. Only the last fragment of a
// burst inside this window is classified.
const DefaultWindow = 800 * time.Millisecond

// Confidence thresholds. At or below surfaceThreshold an intent is
// discarded; above ticketThreshold it also creates a ticket.
const (
	surfaceThreshold = 0.6
	ticketThreshold  = 0.7
)

// Classifier abstracts the intent-classification model call.
type Classifier interface {
	ClassifyIntent(ctx context.Context, transcript string) (*llm.Classification, error)
}

// Opts holds parameters for creating a Gate.
type Opts struct {
	Classifier Classifier
	Window     time.Duration // defaults to DefaultWindow

	// OnIntent receives every surfaced intent (confidence above
	// surfaceThreshold).
	OnIntent func(models.DetectedIntent)

	// OnTicket additionally receives intents confident enough for
	// auto-ticket creation (confidence above ticketThreshold).
	OnTicket func(models.DetectedIntent)
}

// Gate debounces finalized user utterances and classifies the last
// fragment of each burst. A new fragment arriving while a timer is
// pending replaces the pending fragment and restarts the timer; an
// in-flight classification call is never cancelled, so a slow call can
// complete after a later one. Results are applied as they arrive.
type Gate struct {
	classifier Classifier
	window     time.Duration
	onIntent   func(models.DetectedIntent)
	onTicket   func(models.DetectedIntent)

	mu    sync.Mutex
	timer *time.Timer
}

// NewGate creates a Gate.
func NewGate(opts Opts) *Gate {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{
		classifier: opts.Classifier,
		window:     window,
		onIntent:   opts.OnIntent,
		onTicket:   opts.OnTicket,
	}
}

// HandleTranscript feeds one transcript event into the gate. Non-final
// fragments and agent speech are ignored; a final user fragment restarts
// the debounce timer with its text.
func (g *Gate) HandleTranscript(ev models.TranscriptEvent) {
	if !ev.IsFinal || ev.Speaker != models.SpeakerUser || ev.Text == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	text := ev.Text
	g.timer = time.AfterFunc(g.window, func() { g.classify(text) })
}

// Stop cancels any pending debounce timer. In-flight classification calls
// are not aborted; their results are simply no longer consumed by anyone.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// classify runs the classification call for a settled fragment and applies
// the confidence thresholds. Classifier failures are logged and swallowed:
// the next utterance simply retries the whole pipeline.
func (g *Gate) classify(text string) {
	result, err := g.classifier.ClassifyIntent(context.Background(), text)
	if err != nil {
		log.Printf("intent: classify failed: %v", err)
		return
	}
	if !result.IsUIRequest || result.Confidence <= surfaceThreshold {
		return
	}
	detected := models.DetectedIntent{
		ID:          uuid.NewString(),
		IsUIRequest: result.IsUIRequest,
		Confidence:  result.Confidence,
		Component:   result.Component,
		Intent:      result.Intent,
		Context:     result.Context,
		SourceText:  text,
		CreatedAt:   time.Now(),
	}
	if g.onIntent != nil {
		g.onIntent(detected)
	}
	if detected.Confidence > ticketThreshold && g.onTicket != nil {
		g.onTicket(detected)
	}
}
