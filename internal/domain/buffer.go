package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// SensoryType identifies the modality of a perception.
type SensoryType string

const (
	SensoryVisual   SensoryType = "visual"
	SensoryAudio    SensoryType = "audio"
	SensoryText     SensoryType = "text"
	SensoryMovement SensoryType = "movement"
)

func ValidSensoryType(s string) bool {
	switch SensoryType(s) {
	case SensoryVisual, SensoryAudio, SensoryText, SensoryMovement:
		return true
	}
	return false
}

// Origin records how a short-term entry entered the buffer.
type Origin string

const (
	OriginDirect        Origin = "direct"
	OriginSensoryBuffer Origin = "sensory_buffer"
)

// SensoryEntry is a raw perception held for seconds before it is promoted or dropped.
type SensoryEntry struct {
	ID          ulid.ULID      `json:"id"`
	Content     string         `json:"content"`
	SensoryType SensoryType    `json:"sensory_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

func (e SensoryEntry) EntryID() ulid.ULID { return e.ID }
func (e SensoryEntry) ExpiresAtTime() time.Time { return e.ExpiresAt }

// ShortTermEntry is an experience held for minutes to hours before long-term promotion.
type ShortTermEntry struct {
	ID         ulid.ULID      `json:"id"`
	Content    string         `json:"content"`
	Emotion    Emotion        `json:"emotion"`
	Importance int            `json:"importance"`
	Category   Category       `json:"category"`
	Origin     Origin         `json:"origin"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

func (e ShortTermEntry) EntryID() ulid.ULID { return e.ID }
func (e ShortTermEntry) ExpiresAtTime() time.Time { return e.ExpiresAt }
