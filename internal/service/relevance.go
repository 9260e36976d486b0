package service

import (
	"math"
	"sort"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
)

const DefaultHalfLifeDays = 30.0

// ScoreWeights scale the terms of FinalScore.
type ScoreWeights struct {
	Semantic   float64
	Decay      float64
	Emotion    float64
	Importance float64
}

var DefaultScoreWeights = ScoreWeights{
	Semantic:   1.0,
	Decay:      0.3,
	Emotion:    0.2,
	Importance: 0.2,
}

var emotionBoosts = map[domain.Emotion]float64{
	domain.EmotionExcited:   0.4,
	domain.EmotionSurprised: 0.35,
	domain.EmotionMoved:     0.3,
	domain.EmotionSad:       0.25,
	domain.EmotionHappy:     0.2,
	domain.EmotionNostalgic: 0.15,
	domain.EmotionCurious:   0.1,
	domain.EmotionNeutral:   0.0,
}

// TimeDecay returns 2^(-age/halfLife) in [0,1]. A zero timestamp (missing or
// unparsable) and any timestamp after now count as fully fresh.
func TimeDecay(timestamp, now time.Time, halfLifeDays float64) float64 {
	if timestamp.IsZero() || timestamp.After(now) {
		return 1.0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	ageDays := now.Sub(timestamp).Hours() / 24
	decay := math.Pow(2, -ageDays/halfLifeDays)
	return math.Max(0, math.Min(1, decay))
}

// EmotionBoost looks up the fixed boost for e. Unknown emotions get 0.
func EmotionBoost(e domain.Emotion) float64 {
	return emotionBoosts[e]
}

// ImportanceBoost maps importance 1..5 onto 0..0.4.
func ImportanceBoost(importance int) float64 {
	return float64(domain.ClampImportance(importance)-1) / 10
}

// FinalScore combines the terms into a distance-like score: lower is more relevant.
// Boosts are subtracted, so a strongly felt or important memory ranks closer.
func FinalScore(semanticDistance, timeDecay, emotionBoost, importanceBoost float64, w ScoreWeights) float64 {
	score := semanticDistance*w.Semantic +
		(1-timeDecay)*w.Decay -
		(emotionBoost*w.Emotion + importanceBoost*w.Importance)
	return math.Max(0, score)
}

// RelevanceScorer re-ranks semantic search results.
type RelevanceScorer struct {
	HalfLifeDays    float64
	Weights         ScoreWeights
	UseTimeDecay    bool
	UseEmotionBoost bool
}

func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{
		HalfLifeDays:    DefaultHalfLifeDays,
		Weights:         DefaultScoreWeights,
		UseTimeDecay:    true,
		UseEmotionBoost: true,
	}
}

func (s *RelevanceScorer) Score(r domain.MemorySearchResult, now time.Time) domain.ScoredMemory {
	decay := 1.0
	if s.UseTimeDecay {
		decay = TimeDecay(r.Memory.Timestamp, now, s.HalfLifeDays)
	}
	emotion := 0.0
	if s.UseEmotionBoost {
		emotion = EmotionBoost(r.Memory.Emotion)
	}
	importance := ImportanceBoost(r.Memory.Importance)

	return domain.ScoredMemory{
		Memory:           r.Memory,
		SemanticDistance: r.Distance,
		TimeDecay:        decay,
		EmotionBoost:     emotion,
		ImportanceBoost:  importance,
		FinalScore:       FinalScore(r.Distance, decay, emotion, importance, s.Weights),
	}
}

// Rank sorts ascending by final score, keeping delegate order on ties.
func (s *RelevanceScorer) Rank(scored []domain.ScoredMemory) []domain.ScoredMemory {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore < scored[j].FinalScore
	})
	return scored
}

func (s *RelevanceScorer) ScoreAndRank(results []domain.MemorySearchResult, now time.Time) []domain.ScoredMemory {
	scored := make([]domain.ScoredMemory, 0, len(results))
	for _, r := range results {
		scored = append(scored, s.Score(r, now))
	}
	return s.Rank(scored)
}
