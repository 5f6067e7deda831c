package scoring

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/model"
	"github.com/pkale/glucorisk/internal/tier"
)

// stubClassifier returns a fixed probability or error.
type stubClassifier struct {
	probability float64
	err         error
}

func (s *stubClassifier) Score(v features.Vector) (float64, error) {
	return s.probability, s.err
}

// failingStore rejects every append.
type failingStore struct {
	history.Store
}

func (f *failingStore) Append(ctx context.Context, record *history.Record) (int64, error) {
	return 0, &history.StoreError{Op: "append", Err: errors.New("disk full")}
}

func validRequest() Request {
	return Request{
		Name:      "Jordan Vale",
		PatientID: "P-1042",
		Raw: map[string]any{
			"pregnancies":   2.0,
			"glucose":       150.0,
			"bloodpressure": 80.0,
			"skinthickness": 30.0,
			"insulin":       100.0,
			"bmi":           33.5,
			"dpf":           0.6,
			"age":           45.0,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestScore_AppendsAndResponds(t *testing.T) {
	store := history.NewMemoryStore()
	svc := NewService(&stubClassifier{probability: 56.125}, store, testLogger())

	result, err := svc.Score(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if result.Result != tier.Moderate {
		t.Errorf("expected %s, got %s", tier.Moderate, result.Result)
	}
	if result.Probability != 56.13 {
		t.Errorf("expected rounded probability 56.13, got %v", result.Probability)
	}
	if result.Color == "" || result.Suggestion == "" {
		t.Errorf("presentation fields missing: %+v", result)
	}

	records, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record appended, got %d", len(records))
	}
	rec := records[0]
	if rec.PatientID != "P-1042" || rec.RiskLevel != tier.Moderate {
		t.Errorf("record mismatch: %+v", rec)
	}
}

func TestScore_ValidationFailureAppendsNothing(t *testing.T) {
	store := history.NewMemoryStore()
	svc := NewService(&stubClassifier{probability: 50}, store, testLogger())

	req := validRequest()
	delete(req.Raw, "glucose")

	_, err := svc.Score(context.Background(), req)
	var verr *features.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Kind != features.KindMissingField || verr.Field != "glucose" {
		t.Errorf("wrong validation error: %+v", verr)
	}

	records, _ := store.ReadAll(context.Background())
	if len(records) != 0 {
		t.Errorf("expected no records after validation failure, got %d", len(records))
	}
}

func TestScore_ModelFailure(t *testing.T) {
	store := history.NewMemoryStore()
	svc := NewService(&stubClassifier{err: &model.ModelError{Cause: errors.New("bad shape")}}, store, testLogger())

	_, err := svc.Score(context.Background(), validRequest())
	var merr *model.ModelError
	if !errors.As(err, &merr) {
		t.Fatalf("expected ModelError, got %v", err)
	}

	records, _ := store.ReadAll(context.Background())
	if len(records) != 0 {
		t.Errorf("expected no records after model failure, got %d", len(records))
	}
}

func TestScore_AppendFailureFailsRequest(t *testing.T) {
	svc := NewService(&stubClassifier{probability: 42}, &failingStore{}, testLogger())

	result, err := svc.Score(context.Background(), validRequest())
	if err == nil {
		t.Fatalf("expected failure when append fails, got %+v", result)
	}
	var serr *history.StoreError
	if !errors.As(err, &serr) {
		t.Errorf("expected StoreError, got %v", err)
	}
}

func TestScore_EndToEndWithRealClassifier(t *testing.T) {
	classifier, err := model.Load("../model/testdata/model.v1.json")
	if err != nil {
		t.Fatalf("load classifier: %v", err)
	}

	store := history.NewMemoryStore()
	svc := NewService(classifier, store, testLogger())

	result, err := svc.Score(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if result.Probability < 0 || result.Probability > 100 {
		t.Errorf("probability %v out of [0,100]", result.Probability)
	}

	want := tier.Classify(result.Probability).Tier
	if result.Result != want {
		t.Errorf("tier %s inconsistent with probability %v (want %s)", result.Result, result.Probability, want)
	}

	records, _ := store.ReadAll(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record in history, got %d", len(records))
	}
}

func TestScore_TierBoundaries(t *testing.T) {
	cases := []struct {
		probability float64
		want        tier.Tier
	}{
		{10, tier.Low},
		{30, tier.Moderate},
		{70, tier.High},
	}

	for _, tc := range cases {
		store := history.NewMemoryStore()
		svc := NewService(&stubClassifier{probability: tc.probability}, store, testLogger())

		result, err := svc.Score(context.Background(), validRequest())
		if err != nil {
			t.Fatalf("score(%v): %v", tc.probability, err)
		}
		if result.Result != tc.want {
			t.Errorf("probability %v: expected %s, got %s", tc.probability, tc.want, result.Result)
		}
	}
}
