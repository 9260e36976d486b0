package domain

import (
	"time"

	"github.com/google/uuid"
)

// Episode groups a caller-chosen set of memories into one narrative.
// MemoryIDs are ordered by memory timestamp. EndTime is nil for single-memory episodes.
type Episode struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	MemoryIDs       []uuid.UUID `json:"memory_ids"`
	Participants    []string    `json:"participants,omitempty"`
	LocationContext string      `json:"location_context,omitempty"`
	Summary         string      `json:"summary"`
	Emotion         Emotion     `json:"emotion"`
	Importance      int         `json:"importance"`
}

// EpisodeSearchResult is an episode with the semantic distance of its summary.
type EpisodeSearchResult struct {
	Episode  Episode `json:"episode"`
	Distance float64 `json:"distance"`
}
