package buffer

import (
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
)

const (
	DefaultShortTermTTL         = time.Hour
	DefaultShortTermMaxEntries  = 50
	DefaultAutoPromoteThreshold = 4
)

type ShortTermConfig struct {
	TTL                  time.Duration
	MaxEntries           int
	AutoPromoteThreshold int
	Now                  func() time.Time
}

// ShortTermInput describes a new short-term entry. Zero values take the buffer defaults.
type ShortTermInput struct {
	Content    string
	Emotion    domain.Emotion
	Importance int
	Category   domain.Category
	Origin     domain.Origin
	Metadata   map[string]any
}

// ShortTermBuffer holds experiences until they are promoted to long-term memory or expire.
type ShortTermBuffer struct {
	*Buffer[domain.ShortTermEntry]
	ttl       time.Duration
	threshold int
}

func NewShortTermBuffer(cfg ShortTermConfig) *ShortTermBuffer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultShortTermTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultShortTermMaxEntries
	}
	if cfg.AutoPromoteThreshold == 0 {
		cfg.AutoPromoteThreshold = DefaultAutoPromoteThreshold
	}
	return &ShortTermBuffer{
		Buffer:    newBuffer[domain.ShortTermEntry](cfg.MaxEntries, cfg.Now),
		ttl:       cfg.TTL,
		threshold: domain.ClampImportance(cfg.AutoPromoteThreshold),
	}
}

func (b *ShortTermBuffer) Add(in ShortTermInput) domain.ShortTermEntry {
	now := b.now()

	emotion := in.Emotion
	if emotion == "" {
		emotion = domain.EmotionNeutral
	}
	category := in.Category
	if category == "" {
		category = domain.CategoryDaily
	}
	importance := in.Importance
	if importance == 0 {
		importance = domain.DefaultImportance
	}
	origin := in.Origin
	if origin == "" {
		origin = domain.OriginDirect
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	e := domain.ShortTermEntry{
		ID:         newEntryID(now),
		Content:    in.Content,
		Emotion:    emotion,
		Importance: domain.ClampImportance(importance),
		Category:   category,
		Origin:     origin,
		Metadata:   metadata,
		CreatedAt:  now,
		ExpiresAt:  now.Add(b.ttl),
	}
	b.push(e)
	return e
}

// ShouldAutoPromote reports whether e is important enough to move to long-term memory.
func (b *ShortTermBuffer) ShouldAutoPromote(e domain.ShortTermEntry) bool {
	return e.Importance >= b.threshold
}

// AutoPromoteCandidates returns live entries meeting the threshold, oldest first.
func (b *ShortTermBuffer) AutoPromoteCandidates() []domain.ShortTermEntry {
	return b.filter(b.ShouldAutoPromote)
}

func (b *ShortTermBuffer) AutoPromoteThreshold() int {
	return b.threshold
}

func (b *ShortTermBuffer) TTL() time.Duration {
	return b.ttl
}
