package service

import (
	"context"
	"errors"
	"strings"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/types"
)

// ReportService serves read-only aggregates over the registration and claim
// ledgers.  Counts are computed from the ledgers on every call rather than
// kept as counters, so they can never drift.
type ReportService struct {
	events  store.EventStore
	reports store.ReportStore
}

func NewReportService(events store.EventStore, reports store.ReportStore) *ReportService {
	return &ReportService{events: events, reports: reports}
}

// EventReport returns the registration and claim counts for one event.
func (s *ReportService) EventReport(ctx context.Context, eventID string) (types.EventReport, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return types.EventReport{}, ErrInvalidEventID
	}

	ev, err := s.events.Get(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return types.EventReport{}, ErrEventNotFound
	}
	if err != nil {
		return types.EventReport{}, err
	}

	registered, claimed, err := s.reports.EventCounts(ctx, eventID)
	if err != nil {
		return types.EventReport{}, err
	}

	return types.EventReport{
		EventID:    ev.ID,
		Title:      ev.Title,
		Registered: registered,
		Claimed:    claimed,
	}, nil
}

// GlobalReport returns one row per event, in creation order, with organizer
// details and counts.
func (s *ReportService) GlobalReport(ctx context.Context) ([]types.ReportRow, error) {
	return s.reports.GlobalReport(ctx)
}
