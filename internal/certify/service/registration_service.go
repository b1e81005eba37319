package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/types"
)

// RegistrationService maintains the registration ledger.  Registrations are
// only created or deleted while the event is Active; once it ends the
// ledger is frozen and becomes the source of certificate codes.
type RegistrationService struct {
	events        store.EventStore
	registrations store.RegistrationStore
	now           func() time.Time
}

func NewRegistrationService(events store.EventStore, registrations store.RegistrationStore, now func() time.Time) *RegistrationService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RegistrationService{events: events, registrations: registrations, now: now}
}

func (s *RegistrationService) Register(ctx context.Context, req types.RegisterRequest) (types.Registration, error) {
	eventID := strings.TrimSpace(req.EventID)
	recipientID := strings.TrimSpace(req.RecipientID)
	if eventID == "" {
		return types.Registration{}, ErrInvalidEventID
	}
	if recipientID == "" {
		return types.Registration{}, ErrInvalidRecipientID
	}

	ev, err := s.events.Get(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return types.Registration{}, ErrEventNotFound
	}
	if err != nil {
		return types.Registration{}, err
	}
	if ev.State != types.StateActive {
		return types.Registration{}, ErrEventEnded
	}

	reg := types.Registration{
		EventID:       eventID,
		RecipientID:   recipientID,
		RecipientName: strings.TrimSpace(req.RecipientName),
		RegisteredAt:  s.now(),
	}
	err = s.registrations.Create(ctx, reg)
	if errors.Is(err, store.ErrDuplicate) {
		return types.Registration{}, ErrAlreadyRegistered
	}
	if err != nil {
		return types.Registration{}, err
	}
	return reg, nil
}

func (s *RegistrationService) Unregister(ctx context.Context, eventID, recipientID string) error {
	eventID = strings.TrimSpace(eventID)
	recipientID = strings.TrimSpace(recipientID)
	if eventID == "" {
		return ErrInvalidEventID
	}
	if recipientID == "" {
		return ErrInvalidRecipientID
	}

	ev, err := s.events.Get(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if ev.State != types.StateActive {
		// The ledger freezes when the event leaves Active.
		return ErrEventEnded
	}

	err = s.registrations.Delete(ctx, eventID, recipientID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotRegistered
	}
	return err
}
