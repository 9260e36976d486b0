package service

import (
	"math"
	"testing"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/google/uuid"
)

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestTimeDecay(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ts       time.Time
		halfLife float64
		want     float64
	}{
		{"now is fully fresh", now, 30, 1.0},
		{"one half-life", now.Add(-30 * 24 * time.Hour), 30, 0.5},
		{"two half-lives", now.Add(-60 * 24 * time.Hour), 30, 0.25},
		{"custom half-life", now.Add(-7 * 24 * time.Hour), 7, 0.5},
		{"future timestamp fails open", now.Add(time.Hour), 30, 1.0},
		{"zero timestamp fails open", time.Time{}, 30, 1.0},
		{"non-positive half-life uses default", now.Add(-30 * 24 * time.Hour), 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeDecay(tt.ts, now, tt.halfLife)
			if !floatEq(got, tt.want) {
				t.Errorf("TimeDecay() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTimeDecay_StaysInRange(t *testing.T) {
	now := time.Now()
	got := TimeDecay(now.Add(-100*365*24*time.Hour), now, 30)
	if got < 0 || got > 1 {
		t.Errorf("decay out of range: %f", got)
	}
}

func TestEmotionBoost(t *testing.T) {
	tests := []struct {
		emotion domain.Emotion
		want    float64
	}{
		{domain.EmotionExcited, 0.4},
		{domain.EmotionSurprised, 0.35},
		{domain.EmotionMoved, 0.3},
		{domain.EmotionSad, 0.25},
		{domain.EmotionHappy, 0.2},
		{domain.EmotionNostalgic, 0.15},
		{domain.EmotionCurious, 0.1},
		{domain.EmotionNeutral, 0.0},
		{domain.Emotion("bored"), 0.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.emotion), func(t *testing.T) {
			if got := EmotionBoost(tt.emotion); !floatEq(got, tt.want) {
				t.Errorf("EmotionBoost(%s) = %f, want %f", tt.emotion, got, tt.want)
			}
		})
	}
}

func TestImportanceBoost(t *testing.T) {
	tests := []struct {
		importance int
		want       float64
	}{
		{1, 0.0},
		{3, 0.2},
		{5, 0.4},
		{0, 0.0},
		{9, 0.4},
	}

	for _, tt := range tests {
		if got := ImportanceBoost(tt.importance); !floatEq(got, tt.want) {
			t.Errorf("ImportanceBoost(%d) = %f, want %f", tt.importance, got, tt.want)
		}
	}
}

func TestFinalScore(t *testing.T) {
	got := FinalScore(0.5, 0.5, 0.4, 0.4, DefaultScoreWeights)
	// 0.5 + 0.15 - (0.08 + 0.08)
	if !floatEq(got, 0.49) {
		t.Errorf("FinalScore() = %f, want 0.49", got)
	}

	if got := FinalScore(0.01, 1.0, 0.4, 0.4, DefaultScoreWeights); got != 0 {
		t.Errorf("expected score floored at 0, got %f", got)
	}
}

func TestFinalScore_Monotonicity(t *testing.T) {
	w := DefaultScoreWeights

	prev := math.Inf(1)
	for eb := 0.0; eb <= 0.4; eb += 0.05 {
		s := FinalScore(0.8, 0.7, eb, 0.2, w)
		if s > prev {
			t.Fatalf("score rose as emotion boost increased: %f > %f", s, prev)
		}
		prev = s
	}

	prev = math.Inf(1)
	for ib := 0.0; ib <= 0.4; ib += 0.05 {
		s := FinalScore(0.8, 0.7, 0.2, ib, w)
		if s > prev {
			t.Fatalf("score rose as importance boost increased: %f > %f", s, prev)
		}
		prev = s
	}

	prev = -1
	for d := 0.5; d <= 2.0; d += 0.1 {
		s := FinalScore(d, 0.7, 0.2, 0.2, w)
		if s <= prev {
			t.Fatalf("score did not rise with distance: %f <= %f", s, prev)
		}
		prev = s
	}
}

func TestRelevanceScorer_DisabledTermsUseNeutralValues(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r := domain.MemorySearchResult{
		Memory: domain.Memory{
			ID:         uuid.New(),
			Timestamp:  now.Add(-30 * 24 * time.Hour),
			Emotion:    domain.EmotionExcited,
			Importance: 5,
		},
		Distance: 0.6,
	}

	s := NewRelevanceScorer()
	s.UseTimeDecay = false
	s.UseEmotionBoost = false
	scored := s.Score(r, now)

	if scored.TimeDecay != 1.0 {
		t.Errorf("disabled decay should be 1.0, got %f", scored.TimeDecay)
	}
	if scored.EmotionBoost != 0.0 {
		t.Errorf("disabled emotion boost should be 0.0, got %f", scored.EmotionBoost)
	}
	if !floatEq(scored.ImportanceBoost, 0.4) {
		t.Errorf("importance boost should still apply, got %f", scored.ImportanceBoost)
	}
	if !floatEq(scored.FinalScore, 0.52) {
		t.Errorf("expected final score 0.52, got %f", scored.FinalScore)
	}
}

func TestRelevanceScorer_RankAscending(t *testing.T) {
	now := time.Now()
	mk := func(content string, dist float64, emotion domain.Emotion, importance int) domain.MemorySearchResult {
		return domain.MemorySearchResult{
			Memory:   domain.Memory{ID: uuid.New(), Content: content, Timestamp: now, Emotion: emotion, Importance: importance},
			Distance: dist,
		}
	}

	ranked := NewRelevanceScorer().ScoreAndRank([]domain.MemorySearchResult{
		mk("close but flat", 0.30, domain.EmotionNeutral, 1),
		mk("slightly further but vivid", 0.35, domain.EmotionExcited, 5),
		mk("far", 0.90, domain.EmotionNeutral, 3),
	}, now)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	if ranked[0].Memory.Content != "slightly further but vivid" {
		t.Errorf("expected vivid memory first, got %q", ranked[0].Memory.Content)
	}
	if ranked[2].Memory.Content != "far" {
		t.Errorf("expected far memory last, got %q", ranked[2].Memory.Content)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].FinalScore < ranked[i-1].FinalScore {
			t.Errorf("results not ascending at %d", i)
		}
	}
}
