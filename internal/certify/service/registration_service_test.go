package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/attendly/certserver/internal/certify/service"
	"github.com/attendly/certserver/internal/certify/types"
)

func TestRegister_AssignsSequentialCodes(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")
	s.register(t, ev.ID, "alpha", "Alpha")
	s.register(t, ev.ID, "beta", "Beta")
	s.register(t, ev.ID, "gamma", "Gamma")
	s.endEvent(t, ev.ID)

	want := map[string]string{"alpha": "000001", "beta": "000002", "gamma": "000003"}
	for id, code := range want {
		seq, err := s.registrations.SequenceIndex(context.Background(), ev.ID, id)
		if err != nil {
			t.Fatalf("sequence for %s: %v", id, err)
		}
		if got := types.FormatCode(seq); got != code {
			t.Errorf("recipient %s: expected code %s, got %s", id, code, got)
		}
	}
}

func TestRegister_DuplicateRejected(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")
	s.register(t, ev.ID, "rcpt-1", "Ada")

	_, err := s.regSvc.Register(context.Background(), types.RegisterRequest{
		EventID:     ev.ID,
		RecipientID: "rcpt-1",
	})
	if !errors.Is(err, service.ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegister_UnknownEvent(t *testing.T) {
	s := newStack(t)

	_, err := s.regSvc.Register(context.Background(), types.RegisterRequest{
		EventID:     "no-such-event",
		RecipientID: "rcpt-1",
	})
	if !errors.Is(err, service.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestRegister_RejectedAfterEventEnds(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")
	s.endEvent(t, ev.ID)

	_, err := s.regSvc.Register(context.Background(), types.RegisterRequest{
		EventID:     ev.ID,
		RecipientID: "latecomer",
	})
	if !errors.Is(err, service.ErrEventEnded) {
		t.Errorf("expected ErrEventEnded, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.regSvc.Register(ctx, types.RegisterRequest{RecipientID: "rcpt-1"})
	if !errors.Is(err, service.ErrInvalidEventID) {
		t.Errorf("expected ErrInvalidEventID, got %v", err)
	}

	_, err = s.regSvc.Register(ctx, types.RegisterRequest{EventID: "ev-1"})
	if !errors.Is(err, service.ErrInvalidRecipientID) {
		t.Errorf("expected ErrInvalidRecipientID, got %v", err)
	}
}

func TestUnregister_RemovesAndShiftsRanks(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")
	s.register(t, ev.ID, "alpha", "")
	s.register(t, ev.ID, "beta", "")
	s.register(t, ev.ID, "gamma", "")

	if err := s.regSvc.Unregister(context.Background(), ev.ID, "beta"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}

	// gamma moves up into the vacated slot.
	seq, err := s.registrations.SequenceIndex(context.Background(), ev.ID, "gamma")
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if seq != 2 {
		t.Errorf("expected gamma at rank 2 after unregister, got %d", seq)
	}
}

func TestUnregister_NotRegistered(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")

	err := s.regSvc.Unregister(context.Background(), ev.ID, "ghost")
	if !errors.Is(err, service.ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestUnregister_RejectedAfterEventEnds(t *testing.T) {
	s := newStack(t)
	ev := s.createEvent(t, "Gopher Summit")
	s.register(t, ev.ID, "rcpt-1", "")
	s.endEvent(t, ev.ID)

	// The ledger is frozen once the event ends.
	err := s.regSvc.Unregister(context.Background(), ev.ID, "rcpt-1")
	if !errors.Is(err, service.ErrEventEnded) {
		t.Errorf("expected ErrEventEnded, got %v", err)
	}
}
