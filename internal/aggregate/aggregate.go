// Package aggregate computes summary statistics and record lookups over
// the history store. All operations are read-only snapshots of whatever
// the store returns at call time.
package aggregate

import (
	"context"

	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/tier"
)

// Summary is the dashboard headline view of the full history.
type Summary struct {
	Total              int     `json:"total"`
	AverageProbability float64 `json:"avg"`
	HighRiskCount      int     `json:"high"`
}

// Aggregator reads the history store through its query interface only.
type Aggregator struct {
	store history.Store
}

// New creates an aggregator over the given store.
func New(store history.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize computes the summary over the current log contents. The
// average is rounded to 2 decimals and reported as 0 (not NaN) when the
// store is empty.
func (a *Aggregator) Summarize(ctx context.Context) (*Summary, error) {
	records, err := a.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	s := &Summary{Total: len(records)}
	if len(records) == 0 {
		return s, nil
	}

	var sum float64
	for _, rec := range records {
		sum += rec.Probability
		if rec.RiskLevel == tier.High {
			s.HighRiskCount++
		}
	}
	s.AverageProbability = tier.Round2(sum / float64(len(records)))
	return s, nil
}

// Records returns the full ordered history.
func (a *Aggregator) Records(ctx context.Context) ([]*history.Record, error) {
	return a.store.ReadAll(ctx)
}

// FetchByIndex returns the record at the given ordinal, or
// history.ErrNotFound when the index is out of range.
func (a *Aggregator) FetchByIndex(ctx context.Context, index int64) (*history.Record, error) {
	return a.store.ReadAt(ctx, index)
}
