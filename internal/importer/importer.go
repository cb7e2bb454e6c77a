package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/contactos/internal/backup"
	"github.com/roach88/contactos/internal/contact"
)

// ErrBatchTooLarge is returned before any insertion when a batch exceeds the
// configured MaxBatch.
var ErrBatchTooLarge = errors.New("import batch too large")

// Inserter is the write side of the store used by the importer. The lookup
// and the insert must be atomic.
type Inserter interface {
	InsertIfAbsent(ctx context.Context, in contact.Input) (contact.Contact, bool, error)
}

// Rejection records a candidate that never reached the store.
type Rejection struct {
	Index  int    `json:"index" yaml:"index"`
	Email  string `json:"email,omitempty" yaml:"email,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

// Report summarises one import batch.
type Report struct {
	BatchID  string      `json:"batch_id" yaml:"batch_id"`
	Total    int         `json:"total" yaml:"total"`
	Inserted int         `json:"inserted" yaml:"inserted"`
	Skipped  int         `json:"skipped" yaml:"skipped"`
	Rejected []Rejection `json:"rejected" yaml:"rejected"`
}

// String renders the report for text output.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Import complete: %d inserted, %d skipped (duplicate email), %d rejected of %d",
		r.Inserted, r.Skipped, len(r.Rejected), r.Total)
	for _, rej := range r.Rejected {
		fmt.Fprintf(&sb, "\n  #%d: %s", rej.Index, rej.Reason)
	}
	return sb.String()
}

// Importer runs import batches against a store.
type Importer struct {
	store      Inserter
	logger     *slog.Logger
	maxBatch   int
	newBatchID func() string
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger used for batch progress.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) { im.logger = logger }
}

// WithMaxBatch bounds the number of candidates accepted in one batch.
// Zero means unbounded.
func WithMaxBatch(n int) Option {
	return func(im *Importer) { im.maxBatch = n }
}

// WithBatchIDGenerator overrides the batch ID source (for testing).
func WithBatchIDGenerator(gen func() string) Option {
	return func(im *Importer) { im.newBatchID = gen }
}

// New creates an Importer writing to store.
func New(store Inserter, opts ...Option) *Importer {
	im := &Importer{
		store:      store,
		newBatchID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.logger == nil {
		im.logger = slog.Default()
	}
	return im
}

// ImportReader decodes a JSON backup from r and imports it.
// A payload that is not a JSON array fails the whole batch with
// contact.ErrMalformedInput before anything is written. Elements that cannot
// be read as contacts are rejected individually.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (*Report, error) {
	records, err := backup.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return im.importRecords(ctx, records)
}

// ImportBatch merges candidates into the store in input order.
//
// The returned Report is never nil when the batch started. On a storage
// failure or cancellation the report covers the candidates processed so far.
func (im *Importer) ImportBatch(ctx context.Context, candidates []contact.Input) (*Report, error) {
	records := make([]backup.Record, len(candidates))
	for i, in := range candidates {
		records[i] = backup.Record{Input: in}
	}
	return im.importRecords(ctx, records)
}

func (im *Importer) importRecords(ctx context.Context, records []backup.Record) (*Report, error) {
	if im.maxBatch > 0 && len(records) > im.maxBatch {
		return nil, fmt.Errorf("import: %w: %d candidates, limit %d", ErrBatchTooLarge, len(records), im.maxBatch)
	}

	report := &Report{
		BatchID:  im.newBatchID(),
		Total:    len(records),
		Rejected: []Rejection{},
	}
	logger := im.logger.With("batch_id", report.BatchID)
	logger.Info("import started", "candidates", len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			logger.Warn("import interrupted", "processed", i, "error", err)
			return report, fmt.Errorf("import interrupted after %d of %d: %w", i, len(records), err)
		}

		in := rec.Input
		err := rec.Err
		if err == nil {
			err = in.Validate()
		}
		if err != nil {
			report.Rejected = append(report.Rejected, Rejection{Index: i, Email: in.Email, Reason: err.Error()})
			logger.Debug("candidate rejected", "index", i, "reason", err)
			continue
		}

		c, inserted, err := im.store.InsertIfAbsent(ctx, in)
		if err != nil {
			logger.Error("import aborted", "index", i, "error", err)
			return report, fmt.Errorf("import candidate %d: %w", i, err)
		}

		if inserted {
			report.Inserted++
			logger.Debug("candidate inserted", "index", i, "id", c.ID)
		} else {
			report.Skipped++
			logger.Debug("candidate skipped", "index", i, "existing_id", c.ID)
		}
	}

	logger.Info("import finished",
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"rejected", len(report.Rejected),
	)
	return report, nil
}
