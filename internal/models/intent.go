package models

import "time"

// DetectedIntent is a structured judgment that a transcript fragment
// expresses a UI/design request. Created once by the intent gate after a
// classification call returns and never mutated afterwards. Rows are kept
// only for UI correlation; a copy is embedded into any ticket created
// from the intent.
type DetectedIntent struct {
	// ID is the conventional primary key. No primaryKey tag: the struct
	// is also embedded into Ticket, where intent_id must stay a plain
	// column.
	ID          string  `gorm:"size:36"`
	IsUIRequest bool
	Confidence  float64
	Component   string `gorm:"size:255"`
	Intent      string `gorm:"size:255"`
	Context     string `gorm:"type:text"`
	SourceText  string `gorm:"type:text"`
	CreatedAt   time.Time
}
