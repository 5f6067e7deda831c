package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/tier"
)

func memRecord(p float64) *Record {
	return &Record{
		Timestamp:   time.Now(),
		Name:        "Test Patient",
		PatientID:   "P-1",
		Features:    features.Vector{Glucose: 120, BMI: 30, Age: 40},
		Probability: p,
		RiskLevel:   tier.Classify(p).Tier,
	}
}

func TestMemoryStore_AppendAssignsSequence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seq, err := store.Append(ctx, memRecord(50))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if seq != int64(i) {
			t.Errorf("expected seq %d, got %d", i, seq)
		}
	}

	records, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestMemoryStore_RoundsProbability(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Append(context.Background(), memRecord(56.125))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	rec, err := store.ReadAt(context.Background(), 0)
	if err != nil {
		t.Fatalf("readAt: %v", err)
	}
	if rec.Probability != 56.13 {
		t.Errorf("expected 56.13, got %v", rec.Probability)
	}
}

func TestMemoryStore_ReadAtNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.ReadAt(context.Background(), 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ReadAllReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Append(ctx, memRecord(50)); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, _ := store.ReadAll(ctx)
	records[0].Name = "mutated"

	again, _ := store.ReadAll(ctx)
	if again[0].Name != "Test Patient" {
		t.Error("caller mutation leaked into the store")
	}
}
