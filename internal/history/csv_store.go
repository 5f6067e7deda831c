package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkale/glucorisk/internal/features"
	"github.com/pkale/glucorisk/internal/tier"
)

// timeLayout matches what the original logger wrote, so old history files
// stay readable. parseLayouts lists the formats tolerated on read.
const timeLayout = "2006-01-02 15:04:05.000000"

var parseLayouts = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// CSVStore is the default durable store: a single append-only CSV file
// with a header row describing the schema. A process-wide mutex
// serializes appends; multi-process writers need a single-writer
// deployment in front of it.
type CSVStore struct {
	mu   sync.Mutex
	path string

	// seq is the next sequence to assign; -1 until the file has been
	// scanned once under the lock.
	seq int64

	headerOK bool
}

// NewCSVStore creates a store backed by the given file path. The file is
// created (with header) on first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path, seq: -1}
}

// Append writes one record and assigns its sequence. The header is
// written if the file does not exist yet; an existing file with a foreign
// header fails with ErrSchemaMismatch before anything is written.
func (s *CSVStore) Append(ctx context.Context, record *Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, &StoreError{Op: "append", Err: err}
	}

	if err := s.ensureOpen(); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, &StoreError{Op: "append", Err: err}
	}
	defer func() { _ = f.Close() }()

	record.Seq = s.seq
	record.Probability = tier.Round2(record.Probability)

	w := csv.NewWriter(f)
	if err := w.Write(encodeRow(record)); err != nil {
		return 0, &StoreError{Op: "append", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		// A partial row may be on disk; recount before trusting s.seq.
		s.invalidate()
		return 0, &StoreError{Op: "append", Err: err}
	}
	if err := f.Sync(); err != nil {
		// The row may already be durable even though sync reported
		// failure; without a recount the next append would hand out a
		// sequence one below its real ordinal.
		s.invalidate()
		return 0, &StoreError{Op: "append", Err: err}
	}

	s.seq++
	return record.Seq, nil
}

// invalidate drops the cached sequence so the next append re-derives it
// from the file. Caller holds the lock.
func (s *CSVStore) invalidate() {
	s.seq = -1
	s.headerOK = false
}

// ReadAll returns every record in append order. A store file that does
// not exist yet yields an empty slice.
func (s *CSVStore) ReadAll(ctx context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllLocked(ctx)
}

// ReadAt returns the record at the given ordinal. The log is small enough
// that a linear read beats maintaining an index file.
func (s *CSVStore) ReadAt(ctx context.Context, index int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAllLocked(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= int64(len(records)) {
		return nil, ErrNotFound
	}
	return records[index], nil
}

// ensureOpen creates the file with a header if absent, verifies the
// header otherwise, and initializes the next sequence. Caller holds the lock.
func (s *CSVStore) ensureOpen() error {
	if s.headerOK && s.seq >= 0 {
		return nil
	}

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		nf, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return &StoreError{Op: "create", Err: err}
		}
		defer func() { _ = nf.Close() }()

		w := csv.NewWriter(nf)
		if err := w.Write(Columns); err != nil {
			return &StoreError{Op: "create", Err: err}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return &StoreError{Op: "create", Err: err}
		}
		if err := nf.Sync(); err != nil {
			return &StoreError{Op: "create", Err: err}
		}
		s.headerOK = true
		s.seq = 0
		return nil
	}
	if err != nil {
		return &StoreError{Op: "open", Err: err}
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		// Zero-length file: treat as first use and write the header.
		return s.adoptEmptyFile()
	}
	if err != nil {
		return &StoreError{Op: "open", Err: err}
	}
	if err := checkHeader(header); err != nil {
		return err
	}

	var count int64
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &StoreError{Op: "open", Err: err}
		}
		count++
	}

	s.headerOK = true
	s.seq = count
	return nil
}

// adoptEmptyFile writes the header into an existing zero-length file.
func (s *CSVStore) adoptEmptyFile() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &StoreError{Op: "create", Err: err}
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return &StoreError{Op: "create", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &StoreError{Op: "create", Err: err}
	}
	s.headerOK = true
	s.seq = 0
	return nil
}

func (s *CSVStore) readAllLocked(ctx context.Context) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var records []*Record
	for seq := int64(0); ; seq++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &StoreError{Op: "read", Err: err}
		}
		rec, err := decodeRow(row, seq)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if records == nil {
		records = []*Record{}
	}
	return records, nil
}

// checkHeader compares the persisted column set against Columns,
// tolerating surrounding whitespace in names.
func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("%w: got %d columns, expected %d", ErrSchemaMismatch, len(header), len(Columns))
	}
	for i, name := range header {
		if strings.TrimSpace(name) != Columns[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, i, strings.TrimSpace(name), Columns[i])
		}
	}
	return nil
}

func encodeRow(rec *Record) []string {
	return []string{
		rec.Timestamp.Format(timeLayout),
		rec.Name,
		rec.PatientID,
		formatFloat(rec.Features.Pregnancies),
		formatFloat(rec.Features.Glucose),
		formatFloat(rec.Features.BloodPressure),
		formatFloat(rec.Features.SkinThickness),
		formatFloat(rec.Features.Insulin),
		formatFloat(rec.Features.BMI),
		formatFloat(rec.Features.DPF),
		formatFloat(rec.Features.Age),
		strconv.FormatFloat(rec.Probability, 'f', 2, 64),
		string(rec.RiskLevel),
	}
}

func decodeRow(row []string, seq int64) (*Record, error) {
	if len(row) != len(Columns) {
		return nil, &StoreError{Op: "read", Err: fmt.Errorf("row %d has %d fields, expected %d", seq, len(row), len(Columns))}
	}

	ts, err := parseTimestamp(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, &StoreError{Op: "read", Err: fmt.Errorf("row %d timestamp: %w", seq, err)}
	}

	nums := make([]float64, 9) // 8 features + probability
	for i := 0; i < 9; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[3+i]), 64)
		if err != nil {
			return nil, &StoreError{Op: "read", Err: fmt.Errorf("row %d column %s: %w", seq, Columns[3+i], err)}
		}
		nums[i] = v
	}

	return &Record{
		Seq:       seq,
		Timestamp: ts,
		Name:      row[1],
		PatientID: row[2],
		Features: features.Vector{
			Pregnancies:   nums[0],
			Glucose:       nums[1],
			BloodPressure: nums[2],
			SkinThickness: nums[3],
			Insulin:       nums[4],
			BMI:           nums[5],
			DPF:           nums[6],
			Age:           nums[7],
		},
		Probability: nums[8],
		RiskLevel:   tier.Tier(strings.TrimSpace(row[12])),
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
