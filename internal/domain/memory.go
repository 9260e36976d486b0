package domain

import (
	"time"

	"github.com/google/uuid"
)

// Emotion is the affective tag attached to a memory.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionSurprised Emotion = "surprised"
	EmotionMoved     Emotion = "moved"
	EmotionExcited   Emotion = "excited"
	EmotionNostalgic Emotion = "nostalgic"
	EmotionCurious   Emotion = "curious"
	EmotionNeutral   Emotion = "neutral"
)

func ValidEmotion(s string) bool {
	switch Emotion(s) {
	case EmotionHappy, EmotionSad, EmotionSurprised, EmotionMoved,
		EmotionExcited, EmotionNostalgic, EmotionCurious, EmotionNeutral:
		return true
	}
	return false
}

// Category classifies what a memory is about.
type Category string

const (
	CategoryDaily         Category = "daily"
	CategoryPhilosophical Category = "philosophical"
	CategoryTechnical     Category = "technical"
	CategoryMemory        Category = "memory"
	CategoryObservation   Category = "observation"
	CategoryFeeling       Category = "feeling"
	CategoryConversation  Category = "conversation"
)

func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryDaily, CategoryPhilosophical, CategoryTechnical, CategoryMemory,
		CategoryObservation, CategoryFeeling, CategoryConversation:
		return true
	}
	return false
}

// LinkType is the kind of a directed link between two memories.
type LinkType string

const (
	LinkSimilar  LinkType = "similar"
	LinkCausedBy LinkType = "caused_by"
	LinkLeadsTo  LinkType = "leads_to"
	LinkRelated  LinkType = "related"
)

func ValidLinkType(s string) bool {
	switch LinkType(s) {
	case LinkSimilar, LinkCausedBy, LinkLeadsTo, LinkRelated:
		return true
	}
	return false
}

const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// ClampImportance forces an importance value into [MinImportance, MaxImportance].
func ClampImportance(i int) int {
	if i < MinImportance {
		return MinImportance
	}
	if i > MaxImportance {
		return MaxImportance
	}
	return i
}

// MemoryLink is a directed, typed edge stored on its source memory.
type MemoryLink struct {
	TargetID  uuid.UUID `json:"target_id"`
	LinkType  LinkType  `json:"link_type"`
	CreatedAt time.Time `json:"created_at"`
	Note      string    `json:"note,omitempty"`
}

// CameraPosition records where the camera was pointing. Angles are degrees in [-90, 90].
type CameraPosition struct {
	PanAngle  int    `json:"pan_angle"`
	TiltAngle int    `json:"tilt_angle"`
	PresetID  string `json:"preset_id,omitempty"`
}

func (c CameraPosition) Valid() bool {
	return c.PanAngle >= -90 && c.PanAngle <= 90 && c.TiltAngle >= -90 && c.TiltAngle <= 90
}

// SensoryData is a perceptual artifact attached to a memory.
type SensoryData struct {
	SensoryType SensoryType    `json:"sensory_type"`
	FilePath    string         `json:"file_path,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Description string         `json:"description,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Memory is the durable unit of experience owned by the long-term store.
type Memory struct {
	ID             uuid.UUID       `json:"id"`
	Content        string          `json:"content"`
	Timestamp      time.Time       `json:"timestamp"`
	Emotion        Emotion         `json:"emotion"`
	Importance     int             `json:"importance"`
	Category       Category        `json:"category"`
	AccessCount    int             `json:"access_count"`
	LastAccessed   *time.Time      `json:"last_accessed,omitempty"`
	LinkedIDs      []uuid.UUID     `json:"linked_ids,omitempty"`
	EpisodeID      *uuid.UUID      `json:"episode_id,omitempty"`
	SensoryData    []SensoryData   `json:"sensory_data,omitempty"`
	CameraPosition *CameraPosition `json:"camera_position,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Links          []MemoryLink    `json:"links,omitempty"`
}

// HasLinkedID reports whether id is already in the similarity set.
func (m *Memory) HasLinkedID(id uuid.UUID) bool {
	for _, l := range m.LinkedIDs {
		if l == id {
			return true
		}
	}
	return false
}

// HasLink reports whether a causal link with the same target and type exists.
func (m *Memory) HasLink(target uuid.UUID, t LinkType) bool {
	for _, l := range m.Links {
		if l.TargetID == target && l.LinkType == t {
			return true
		}
	}
	return false
}

// MemorySearchResult is a memory with the raw distance returned by the semantic store.
type MemorySearchResult struct {
	Memory   Memory  `json:"memory"`
	Distance float64 `json:"distance"`
}

// ScoredMemory carries the full relevance breakdown. Lower FinalScore is more relevant.
type ScoredMemory struct {
	Memory           Memory  `json:"memory"`
	SemanticDistance float64 `json:"semantic_distance"`
	TimeDecay        float64 `json:"time_decay"`
	EmotionBoost     float64 `json:"emotion_boost"`
	ImportanceBoost  float64 `json:"importance_boost"`
	FinalScore       float64 `json:"final_score"`
}

// MemoryStats summarizes the long-term store.
type MemoryStats struct {
	TotalCount      int              `json:"total_count"`
	ByCategory      map[Category]int `json:"by_category"`
	ByEmotion       map[Emotion]int  `json:"by_emotion"`
	OldestTimestamp *time.Time       `json:"oldest_timestamp,omitempty"`
	NewestTimestamp *time.Time       `json:"newest_timestamp,omitempty"`
}
