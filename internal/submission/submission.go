// Package submission persists finished offers.
//
// A submission is a one-shot snapshot of an offer's line items, comments and
// totals. It is written to a Store and acknowledged; nothing in the session
// changes as a result, so a failed submission can simply be retried.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// Errors returned by submission stores.
var (
	// ErrSubmissionFailed wraps every failure to persist a submission.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrStoreCorrupted indicates the store exists but cannot be decoded.
	ErrStoreCorrupted = errors.New("submission store corrupted")
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// SuccessMessage is the acknowledgement text of a stored submission.
const SuccessMessage = "Submission saved successfully."

// Submission is a stored snapshot of an offer.
type Submission struct {
	ID        string          `json:"id"`
	Offer     *lineitem.Offer `json:"offer"`
	Totals    engine.Totals   `json:"totals"`
	CreatedAt time.Time       `json:"created_at"`
}

// Ack acknowledges a submission attempt.
type Ack struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// Store persists submissions.
type Store interface {
	Save(ctx context.Context, s Submission) error
	List(ctx context.Context) ([]Submission, error)
	Close() error
}

// Open returns the store for a backend name.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown submission backend %q", backend)
	}
}

// Submitter stamps offers and hands them to a Store.
type Submitter struct {
	store Store
	now   func() time.Time
}

// NewSubmitter wraps store.
func NewSubmitter(store Store) *Submitter {
	return &Submitter{store: store, now: time.Now}
}

// Submit stores a snapshot of offer with its totals. On failure the Ack
// reports Success=false and the error wraps ErrSubmissionFailed.
func (s *Submitter) Submit(ctx context.Context, offer *lineitem.Offer, totals engine.Totals) (Ack, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "submission").
		Str("operation", "Submit").
		Logger()

	if offer == nil {
		offer = &lineitem.Offer{}
	}
	now := s.now().UTC()
	sub := Submission{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Offer:     offer.Clone(),
		Totals:    totals,
		CreatedAt: now,
	}

	if err := s.store.Save(ctx, sub); err != nil {
		logger.Warn().Err(err).Str("submission_id", sub.ID).Msg("submission not stored")
		return Ack{Success: false, Message: err.Error()}, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	logger.Info().
		Str("submission_id", sub.ID).
		Int("items", offer.Len()).
		Float64("grand_total", totals.GrandTotal).
		Msg("submission stored")
	return Ack{Success: true, ID: sub.ID, Message: SuccessMessage}, nil
}
