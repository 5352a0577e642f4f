// Package notify announces exported tickets to chat platforms. Delivery
// is best-effort: a failed notification never fails the export.
package notify

import (
	"context"
	"log"

	"github.com/draftwire/draftwire/internal/models"
)

// Adapter is the interface that platform-specific implementations satisfy.
type Adapter interface {
	// TicketExported announces one exported ticket and its issue URL.
	TicketExported(ctx context.Context, t *models.Ticket, issueURL string) error

	// Name identifies the platform, e.g. "slack".
	Name() string
}

// Notifier fans an export event out to all configured adapters.
type Notifier struct {
	adapters []Adapter
}

// NewNotifier creates a Notifier. An empty adapter list is valid and
// makes every call a no-op.
func NewNotifier(adapters ...Adapter) *Notifier {
	return &Notifier{adapters: adapters}
}

// TicketExported delivers the event to every adapter, logging failures.
func (n *Notifier) TicketExported(ctx context.Context, t *models.Ticket, issueURL string) {
	for _, a := range n.adapters {
		if err := a.TicketExported(ctx, t, issueURL); err != nil {
			log.Printf("notify: %s: %v", a.Name(), err)
		}
	}
}
