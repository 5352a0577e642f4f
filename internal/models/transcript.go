package models

import "time"

// Speaker identifies who produced a transcript fragment.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// TranscriptEvent is a transcript fragment pushed by the realtime speech
// transport. Immutable once created. Events are ordered by arrival, not by
// Timestamp: arrival order is authoritative. Not persisted — transcript
// rendering is a presentation concern.
type TranscriptEvent struct {
	ID        string
	Speaker   Speaker
	Text      string
	IsFinal   bool
	Timestamp time.Time
}
