package store

import (
	"context"
	"errors"
	"time"

	"github.com/attendly/certserver/internal/certify/types"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert collides with an existing
	// record on its uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")

	// ErrStaleState is returned when a guarded transition finds the event
	// no longer in the expected state.
	ErrStaleState = errors.New("event not in expected state")
)

type EventStore interface {
	Create(ctx context.Context, ev types.Event) error
	Get(ctx context.Context, eventID string) (types.Event, error)

	// End performs the Active→Ended transition, atomically freezing the
	// template and claim window.  Returns ErrStaleState if the event is
	// not Active, so concurrent end-event calls cannot both win.
	End(ctx context.Context, eventID string, tpl types.Template, window types.ClaimWindow, now time.Time) error
}

type RegistrationStore interface {
	Create(ctx context.Context, reg types.Registration) error
	Delete(ctx context.Context, eventID, recipientID string) error
	Get(ctx context.Context, eventID, recipientID string) (types.Registration, error)

	// SequenceIndex is the recipient's 1-based registration rank for the
	// event, ordered by registration time with ties broken by insertion
	// order.  This rank is the source of the certificate code.
	SequenceIndex(ctx context.Context, eventID, recipientID string) (int, error)
}

type ClaimStore interface {
	// Create attempts the atomic check-and-insert on the
	// (event, recipient) uniqueness constraint.  Exactly one concurrent
	// caller observes created=true; the rest get the already-inserted
	// record back.
	Create(ctx context.Context, rec types.ClaimRecord) (created bool, existing types.ClaimRecord, err error)

	Get(ctx context.Context, eventID, recipientID string) (types.ClaimRecord, error)
}

// ArtifactRecord is a rendered certificate addressed by its ref.
type ArtifactRecord struct {
	Ref         string
	EventID     string
	RecipientID string
	Data        []byte
	CreatedAt   time.Time
}

type ArtifactStore interface {
	// Put stores artifact bytes.  Writing the same ref again is allowed
	// and replaces the bytes; renders are deterministic so this is only
	// ever a redundant write.
	Put(ctx context.Context, rec ArtifactRecord) error
	Get(ctx context.Context, ref string) ([]byte, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// ReportStore is the read-side projection over the registration and claim
// ledgers.
type ReportStore interface {
	EventCounts(ctx context.Context, eventID string) (registered, claimed int, err error)
	GlobalReport(ctx context.Context) ([]types.ReportRow, error)

	// ClosedUnsummarized lists ended events whose claim window closed
	// before now and whose closure summary has not been logged yet.
	ClosedUnsummarized(ctx context.Context, now time.Time) ([]types.Event, error)
	MarkSummarized(ctx context.Context, eventID string, at time.Time) error
}
