// Package history is the append-only log of every scoring event.
//
// Records are immutable once written and ordered by append time. Each
// record carries a monotonically increasing sequence assigned under the
// store's write lock; because the log never deletes or reorders, the
// sequence doubles as the 0-based ordinal index the read endpoints use.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/tier"
)

// Columns is the fixed persisted layout. Changing it breaks every
// previously written history file, so it only grows behind a schema
// version bump.
var Columns = []string{
	"timestamp", "name", "patient_id",
	"pregnancies", "glucose", "bloodpressure", "skinthickness",
	"insulin", "bmi", "dpf", "age",
	"probability", "risk_level",
}

var (
	// ErrNotFound is returned when a record index is out of range.
	ErrNotFound = errors.New("history: record not found")

	// ErrSchemaMismatch is returned when a store's persisted column set
	// does not match Columns. Distinguishable from "no data yet": an
	// absent store reads as empty, a foreign one fails loudly.
	ErrSchemaMismatch = errors.New("history: schema mismatch")
)

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Record is one row of the log.
type Record struct {
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Name      string          `json:"name,omitempty"`
	PatientID string          `json:"patientId,omitempty"`
	Features  features.Vector `json:"features"`

	// Probability percent, rounded to 2 decimals at append time.
	Probability float64   `json:"probability"`
	RiskLevel   tier.Tier `json:"riskLevel"`
}

// Store is the append-only persistence interface. Implementations must
// serialize Append so concurrent callers never interleave partial rows,
// and must never rewrite or drop a previously appended record.
type Store interface {
	// Append durably writes the record, assigns record.Seq, and returns it.
	Append(ctx context.Context, record *Record) (int64, error)

	// ReadAll returns every record in append order. An absent store
	// yields an empty slice, not an error.
	ReadAll(ctx context.Context) ([]*Record, error)

	// ReadAt returns the record at the given 0-based ordinal, or
	// ErrNotFound when index is out of range.
	ReadAt(ctx context.Context, index int64) (*Record, error)
}
