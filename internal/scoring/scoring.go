// Package scoring orchestrates the pipeline: extract features, score
// against the classifier, classify the tier, append to the history log.
//
// A successful response is returned if and only if the record was durably
// appended; an append failure surfaces as a pipeline failure rather than
// being swallowed behind a computed result.
package scoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/metrics"
	"github.com/pkale/glucorisk/internal/model"
	"github.com/pkale/glucorisk/internal/tier"
	"github.com/pkale/glucorisk/internal/traces"
)

// Classifier is the inference capability the pipeline needs.
type Classifier interface {
	Score(v features.Vector) (float64, error)
}

// Publisher receives scoring events after they are durably appended.
type Publisher interface {
	BroadcastScoring(data map[string]any)
}

// Request is one scoring request: the raw feature fields plus optional
// identity fields.
type Request struct {
	Name      string
	PatientID string
	Raw       map[string]any
}

// Result is the scoring response contract.
type Result struct {
	Result      tier.Tier `json:"result"`
	Probability float64   `json:"probability"`
	Color       string    `json:"color"`
	Suggestion  string    `json:"suggestion"`
	RecordSeq   int64     `json:"recordSeq"`
}

// Service runs the scoring pipeline. The classifier is immutable after
// construction; the store is the only shared mutable resource.
type Service struct {
	classifier Classifier
	store      history.Store
	publisher  Publisher // optional
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates the pipeline.
func NewService(classifier Classifier, store history.Store, logger *slog.Logger) *Service {
	return &Service{
		classifier: classifier,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// WithPublisher attaches a realtime publisher notified after each append.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// Score runs the full pipeline for one request.
func (s *Service) Score(ctx context.Context, req Request) (*Result, error) {
	ctx, span := traces.StartSpan(ctx, "scoring.score")
	defer span.End()

	start := time.Now()

	vector, err := features.Extract(req.Raw)
	if err != nil {
		metrics.ScoringFailuresTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	probability, err := s.classifier.Score(vector)
	if err != nil {
		metrics.ScoringFailuresTotal.WithLabelValues("model").Inc()
		s.logger.Error("inference failed", "error", err)
		return nil, err
	}

	classified := tier.Classify(probability)

	record := &history.Record{
		Timestamp:   s.now(),
		Name:        req.Name,
		PatientID:   req.PatientID,
		Features:    vector,
		Probability: probability,
		RiskLevel:   classified.Tier,
	}

	seq, err := s.store.Append(ctx, record)
	if err != nil {
		metrics.ScoringFailuresTotal.WithLabelValues("store").Inc()
		s.logger.Error("history append failed", "error", err)
		return nil, err
	}

	span.SetAttributes(
		traces.RiskTier(string(classified.Tier)),
		traces.Probability(record.Probability),
		traces.RecordSeq(seq),
	)
	metrics.ScoresTotal.WithLabelValues(string(classified.Tier)).Inc()
	metrics.ScoreDuration.Observe(time.Since(start).Seconds())
	metrics.HistoryRecords.Set(float64(seq + 1))

	if s.publisher != nil {
		s.publisher.BroadcastScoring(map[string]any{
			"seq":         seq,
			"probability": record.Probability,
			"riskLevel":   string(classified.Tier),
		})
	}

	s.logger.Info("scoring completed",
		"seq", seq,
		"probability", record.Probability,
		"tier", classified.Tier,
	)

	return &Result{
		Result:      classified.Tier,
		Probability: record.Probability,
		Color:       classified.Color,
		Suggestion:  classified.Suggestion,
		RecordSeq:   seq,
	}, nil
}

// ensure the real classifier satisfies the pipeline contract
var _ Classifier = (*model.Classifier)(nil)
