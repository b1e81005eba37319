package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/token"
	"github.com/attendly/certserver/internal/certify/types"
)

// ClaimService is the system's critical section: it grants at most one
// certificate per (event, recipient), no matter how many duplicate scans or
// retried requests arrive at once.
type ClaimService struct {
	events        store.EventStore
	registrations store.RegistrationStore
	claims        store.ClaimStore
	artifacts     store.ArtifactStore
	renderer      Renderer
	now           func() time.Time
}

func NewClaimService(
	events store.EventStore,
	registrations store.RegistrationStore,
	claims store.ClaimStore,
	artifacts store.ArtifactStore,
	renderer Renderer,
	now func() time.Time,
) *ClaimService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ClaimService{
		events:        events,
		registrations: registrations,
		claims:        claims,
		artifacts:     artifacts,
		renderer:      renderer,
		now:           now,
	}
}

// Claim processes one claim attempt.  Preconditions are checked in order
// with the first failure winning: registration, then window, then the
// uniqueness constraint.  A repeat claim is not an error; the caller gets
// the original record back with AlreadyClaimed set.
func (s *ClaimService) Claim(ctx context.Context, req types.ClaimRequest) (types.ClaimResponse, error) {
	eventID, err := token.EventID(req.ClaimToken)
	if err != nil {
		return types.ClaimResponse{}, err
	}
	recipientID := strings.TrimSpace(req.RecipientID)
	if recipientID == "" {
		return types.ClaimResponse{}, ErrInvalidRecipientID
	}

	ev, err := s.events.Get(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return types.ClaimResponse{}, ErrEventNotFound
	}
	if err != nil {
		return types.ClaimResponse{}, err
	}

	reg, err := s.registrations.Get(ctx, eventID, recipientID)
	if errors.Is(err, store.ErrNotFound) {
		return types.ClaimResponse{}, ErrNotRegistered
	}
	if err != nil {
		return types.ClaimResponse{}, err
	}

	now := s.now()
	if ev.State != types.StateEnded || ev.Window == nil || !ev.Window.Open(now) {
		return types.ClaimResponse{}, ErrWindowClosed
	}

	seq, err := s.registrations.SequenceIndex(ctx, eventID, recipientID)
	if err != nil {
		return types.ClaimResponse{}, fmt.Errorf("sequence index: %w", err)
	}
	code := types.FormatCode(seq)

	rec := types.ClaimRecord{
		EventID:     eventID,
		RecipientID: recipientID,
		ClaimedAt:   now,
		ArtifactRef: types.ArtifactRef(eventID, recipientID),
	}

	// The atomic check-and-insert.  Exactly one concurrent attempt per
	// recipient wins; only the winner renders.
	created, existing, err := s.claims.Create(ctx, rec)
	if err != nil {
		return types.ClaimResponse{}, fmt.Errorf("record claim: %w", err)
	}

	if created {
		if err := s.renderArtifact(ctx, ev, reg, existing, code); err != nil {
			return types.ClaimResponse{}, err
		}
	} else if err := s.ensureArtifact(ctx, ev, reg, existing, code); err != nil {
		return types.ClaimResponse{}, err
	}

	return types.ClaimResponse{
		EventID:        eventID,
		RecipientID:    recipientID,
		Code:           code,
		ArtifactRef:    existing.ArtifactRef,
		ClaimedAt:      existing.ClaimedAt,
		AlreadyClaimed: !created,
	}, nil
}

// Download returns a previously claimed certificate.  Valid forever once
// the artifact exists; the claim window only gates new claims.
func (s *ClaimService) Download(ctx context.Context, eventID, recipientID string) ([]byte, error) {
	eventID = strings.TrimSpace(eventID)
	recipientID = strings.TrimSpace(recipientID)
	if eventID == "" {
		return nil, ErrInvalidEventID
	}
	if recipientID == "" {
		return nil, ErrInvalidRecipientID
	}

	data, err := s.artifacts.Get(ctx, types.ArtifactRef(eventID, recipientID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrArtifactNotFound
	}
	return data, err
}

func (s *ClaimService) renderArtifact(ctx context.Context, ev types.Event, reg types.Registration, rec types.ClaimRecord, code string) error {
	// Template problems were caught by the probe render at end-event
	// time, so a failure here is transient I/O and safe to retry: the
	// idempotent path below re-renders when the artifact is missing.
	data, err := s.renderer.Render(*ev.Template, recipientDisplayName(reg), code)
	if err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	err = s.artifacts.Put(ctx, store.ArtifactRecord{
		Ref:         rec.ArtifactRef,
		EventID:     rec.EventID,
		RecipientID: rec.RecipientID,
		Data:        data,
		CreatedAt:   rec.ClaimedAt,
	})
	if err != nil {
		return fmt.Errorf("store certificate: %w", err)
	}
	return nil
}

// ensureArtifact backfills the artifact if a previous winner recorded the
// claim but failed before its bytes landed.  Renders are deterministic, so
// re-rendering reproduces the identical certificate.
func (s *ClaimService) ensureArtifact(ctx context.Context, ev types.Event, reg types.Registration, rec types.ClaimRecord, code string) error {
	ok, err := s.artifacts.Exists(ctx, rec.ArtifactRef)
	if err != nil {
		return fmt.Errorf("check certificate: %w", err)
	}
	if ok {
		return nil
	}
	return s.renderArtifact(ctx, ev, reg, rec, code)
}

func recipientDisplayName(reg types.Registration) string {
	if reg.RecipientName != "" {
		return reg.RecipientName
	}
	return reg.RecipientID
}
