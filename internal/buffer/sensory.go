package buffer

import (
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
)

const (
	DefaultSensoryTTL        = 60 * time.Second
	DefaultSensoryMaxEntries = 100
)

type SensoryConfig struct {
	TTL        time.Duration
	MaxEntries int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// SensoryBuffer holds raw perceptions for a few seconds.
type SensoryBuffer struct {
	*Buffer[domain.SensoryEntry]
	ttl time.Duration
}

func NewSensoryBuffer(cfg SensoryConfig) *SensoryBuffer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSensoryTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultSensoryMaxEntries
	}
	return &SensoryBuffer{
		Buffer: newBuffer[domain.SensoryEntry](cfg.MaxEntries, cfg.Now),
		ttl:    cfg.TTL,
	}
}

// Add records a perception. It always succeeds; a full buffer drops its oldest entry.
func (b *SensoryBuffer) Add(content string, sensoryType domain.SensoryType, metadata map[string]any) domain.SensoryEntry {
	now := b.now()
	if metadata == nil {
		metadata = map[string]any{}
	}
	e := domain.SensoryEntry{
		ID:          newEntryID(now),
		Content:     content,
		SensoryType: sensoryType,
		Metadata:    metadata,
		CreatedAt:   now,
		ExpiresAt:   now.Add(b.ttl),
	}
	b.push(e)
	return e
}

func (b *SensoryBuffer) TTL() time.Duration {
	return b.ttl
}
