package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/tier"
)

func seedStore(t *testing.T, probabilities ...float64) *history.MemoryStore {
	t.Helper()
	store := history.NewMemoryStore()
	for _, p := range probabilities {
		rec := &history.Record{
			Timestamp:   time.Now(),
			Features:    features.Vector{Glucose: 120},
			Probability: p,
			RiskLevel:   tier.Classify(p).Tier,
		}
		if _, err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("seed append: %v", err)
		}
	}
	return store
}

func TestSummarize_Empty(t *testing.T) {
	agg := New(history.NewMemoryStore())

	s, err := agg.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Total != 0 || s.AverageProbability != 0 || s.HighRiskCount != 0 {
		t.Errorf("expected zeroed summary, got %+v", s)
	}
}

func TestSummarize_Basic(t *testing.T) {
	agg := New(seedStore(t, 10, 50, 90))

	s, err := agg.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Total != 3 {
		t.Errorf("expected total 3, got %d", s.Total)
	}
	if s.AverageProbability != 50.0 {
		t.Errorf("expected average 50.0, got %v", s.AverageProbability)
	}
	if s.HighRiskCount != 1 {
		t.Errorf("expected 1 high risk, got %d", s.HighRiskCount)
	}
}

func TestSummarize_AverageRounding(t *testing.T) {
	agg := New(seedStore(t, 10, 10, 11))

	s, err := agg.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.AverageProbability != 10.33 {
		t.Errorf("expected 10.33, got %v", s.AverageProbability)
	}
}

func TestFetchByIndex(t *testing.T) {
	agg := New(seedStore(t, 10, 50, 90))
	ctx := context.Background()

	rec, err := agg.FetchByIndex(ctx, 2)
	if err != nil {
		t.Fatalf("fetchByIndex: %v", err)
	}
	if rec.Probability != 90 || rec.RiskLevel != tier.High {
		t.Errorf("wrong record at index 2: %+v", rec)
	}

	if _, err := agg.FetchByIndex(ctx, 3); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
