package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/google/uuid"
)

// Metadata keys shared by every semantic store backend.
const (
	KeyTimestamp      = "timestamp"
	KeyEmotion        = "emotion"
	KeyImportance     = "importance"
	KeyCategory       = "category"
	KeyAccessCount    = "access_count"
	KeyLastAccessed   = "last_accessed"
	KeyLinkedIDs      = "linked_ids"
	KeyEpisodeID      = "episode_id"
	KeySensoryData    = "sensory_data"
	KeyCameraPosition = "camera_position"
	KeyTags           = "tags"
	KeyLinks          = "links"

	KeyTitle           = "title"
	KeyStartTime       = "start_time"
	KeyEndTime         = "end_time"
	KeyMemoryIDs       = "memory_ids"
	KeyParticipants    = "participants"
	KeyLocationContext = "location_context"
	KeySummary         = "summary"
)

// TimeLayout is fixed-width UTC so that lexical order of stored values matches time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// FormatTime encodes t for metadata. The zero time encodes as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a stored timestamp. Anything unparsable yields the zero time.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []uuid.UUID {
	if s == "" {
		return nil
	}
	var ids []uuid.UUID
	for _, p := range strings.Split(s, ",") {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func marshalString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// EncodeMemory flattens everything but the id and content into metadata.
func EncodeMemory(m *domain.Memory) map[string]string {
	meta := map[string]string{
		KeyTimestamp:   FormatTime(m.Timestamp),
		KeyEmotion:     string(m.Emotion),
		KeyImportance:  strconv.Itoa(m.Importance),
		KeyCategory:    string(m.Category),
		KeyAccessCount: strconv.Itoa(m.AccessCount),
		KeyLinkedIDs:   joinIDs(m.LinkedIDs),
		KeyEpisodeID:   "",
		KeyTags:        strings.Join(m.Tags, ","),
	}
	if m.LastAccessed != nil {
		meta[KeyLastAccessed] = FormatTime(*m.LastAccessed)
	} else {
		meta[KeyLastAccessed] = ""
	}
	if m.EpisodeID != nil {
		meta[KeyEpisodeID] = m.EpisodeID.String()
	}
	sensory := m.SensoryData
	if sensory == nil {
		sensory = []domain.SensoryData{}
	}
	meta[KeySensoryData] = marshalString(sensory)
	if m.CameraPosition != nil {
		meta[KeyCameraPosition] = marshalString(m.CameraPosition)
	} else {
		meta[KeyCameraPosition] = ""
	}
	links := m.Links
	if links == nil {
		links = []domain.MemoryLink{}
	}
	meta[KeyLinks] = marshalString(links)
	return meta
}

// DecodeMemory rebuilds a memory from a delegate record. Malformed or missing fields
// fall back to their defaults; only an unparsable id is an error.
func DecodeMemory(rec domain.Record) (domain.Memory, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return domain.Memory{}, fmt.Errorf("decode memory id %q: %w", rec.ID, err)
	}
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	m := domain.Memory{
		ID:          id,
		Content:     rec.Text,
		Timestamp:   ParseTime(meta[KeyTimestamp]),
		Emotion:     domain.EmotionNeutral,
		Importance:  domain.ClampImportance(atoiDefault(meta[KeyImportance], domain.DefaultImportance)),
		Category:    domain.CategoryDaily,
		AccessCount: atoiDefault(meta[KeyAccessCount], 0),
		LinkedIDs:   splitIDs(meta[KeyLinkedIDs]),
		Tags:        splitList(meta[KeyTags]),
	}
	if m.AccessCount < 0 {
		m.AccessCount = 0
	}
	if domain.ValidEmotion(meta[KeyEmotion]) {
		m.Emotion = domain.Emotion(meta[KeyEmotion])
	}
	if domain.ValidCategory(meta[KeyCategory]) {
		m.Category = domain.Category(meta[KeyCategory])
	}
	if t := ParseTime(meta[KeyLastAccessed]); !t.IsZero() {
		m.LastAccessed = &t
	}
	if eid, err := uuid.Parse(meta[KeyEpisodeID]); err == nil {
		m.EpisodeID = &eid
	}
	if s := meta[KeySensoryData]; s != "" {
		var sd []domain.SensoryData
		if json.Unmarshal([]byte(s), &sd) == nil && len(sd) > 0 {
			m.SensoryData = sd
		}
	}
	if s := meta[KeyCameraPosition]; s != "" {
		var cp domain.CameraPosition
		if json.Unmarshal([]byte(s), &cp) == nil {
			m.CameraPosition = &cp
		}
	}
	if s := meta[KeyLinks]; s != "" {
		var links []domain.MemoryLink
		if json.Unmarshal([]byte(s), &links) == nil && len(links) > 0 {
			m.Links = links
		}
	}
	return m, nil
}

// EpisodeText is the searchable text for an episode: its summary, or its title when
// summarization was skipped.
func EpisodeText(e *domain.Episode) string {
	if e.Summary != "" {
		return e.Summary
	}
	return e.Title
}

func EncodeEpisode(e *domain.Episode) map[string]string {
	meta := map[string]string{
		KeyTitle:           e.Title,
		KeyStartTime:       FormatTime(e.StartTime),
		KeyEndTime:         "",
		KeyMemoryIDs:       joinIDs(e.MemoryIDs),
		KeyParticipants:    strings.Join(e.Participants, ","),
		KeyLocationContext: e.LocationContext,
		KeyEmotion:         string(e.Emotion),
		KeyImportance:      strconv.Itoa(e.Importance),
		KeySummary:         e.Summary,
	}
	if e.EndTime != nil {
		meta[KeyEndTime] = FormatTime(*e.EndTime)
	}
	return meta
}

func DecodeEpisode(rec domain.Record) (domain.Episode, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return domain.Episode{}, fmt.Errorf("decode episode id %q: %w", rec.ID, err)
	}
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	e := domain.Episode{
		ID:              id,
		Title:           meta[KeyTitle],
		StartTime:       ParseTime(meta[KeyStartTime]),
		MemoryIDs:       splitIDs(meta[KeyMemoryIDs]),
		Participants:    splitList(meta[KeyParticipants]),
		LocationContext: meta[KeyLocationContext],
		Emotion:         domain.EmotionNeutral,
		Importance:      domain.ClampImportance(atoiDefault(meta[KeyImportance], domain.DefaultImportance)),
	}
	if summary, ok := meta[KeySummary]; ok {
		e.Summary = summary
	} else {
		e.Summary = rec.Text
	}
	if t := ParseTime(meta[KeyEndTime]); !t.IsZero() {
		e.EndTime = &t
	}
	if domain.ValidEmotion(meta[KeyEmotion]) {
		e.Emotion = domain.Emotion(meta[KeyEmotion])
	}
	return e, nil
}
