package models

import "time"

// Ticket statuses. The only legal transitions are
// pending → generating → ready → exporting → exported, plus the
// failure edges generating → pending and exporting → ready.
const (
	StatusPending    = "pending"
	StatusGenerating = "generating"
	StatusReady      = "ready"
	StatusExporting  = "exporting"
	StatusExported   = "exported"
)

// Ticket is the unit of work tracked from detected intent through mockup
// selection to export. The originating intent is embedded by value: the
// ticket owns its copy even if the standalone DetectedIntent row is removed.
type Ticket struct {
	ID               string          `gorm:"primaryKey;size:36"`
	Intent           DetectedIntent  `gorm:"embedded;embeddedPrefix:intent_"`
	Variants         []MockupVariant `gorm:"foreignKey:TicketID"`
	SelectedVariant  *int
	Status           string          `gorm:"size:16;default:pending;index"`
	ExportedLocation string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MockupVariant is one self-contained generated markup/style candidate.
// The content is opaque: never parsed or validated beyond presence.
type MockupVariant struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	TicketID string `gorm:"size:36;index"`
	Position int
	Name     string `gorm:"size:128"`
	Markup   string `gorm:"type:text"`
	Style    string `gorm:"type:text"`
}
