package memory

import (
	"context"
	"sort"
	"time"

	"github.com/attendly/certserver/internal/certify/types"
)

// ReportStore projects counts out of the in-memory ledgers.
type ReportStore struct {
	events        *EventStore
	registrations *RegistrationStore
	claims        *ClaimStore
}

func NewReportStore(events *EventStore, registrations *RegistrationStore, claims *ClaimStore) *ReportStore {
	return &ReportStore{events: events, registrations: registrations, claims: claims}
}

func (s *ReportStore) EventCounts(_ context.Context, eventID string) (int, int, error) {
	return s.registrations.count(eventID), s.claims.count(eventID), nil
}

func (s *ReportStore) GlobalReport(_ context.Context) ([]types.ReportRow, error) {
	events := s.events.snapshot()
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})

	out := make([]types.ReportRow, 0, len(events))
	for _, ev := range events {
		out = append(out, types.ReportRow{
			EventID:    ev.ID,
			Title:      ev.Title,
			Organizer:  ev.OrganizerName,
			Contact:    ev.OrganizerContact,
			Registered: s.registrations.count(ev.ID),
			Claimed:    s.claims.count(ev.ID),
		})
	}
	return out, nil
}

func (s *ReportStore) ClosedUnsummarized(_ context.Context, now time.Time) ([]types.Event, error) {
	var out []types.Event
	for _, ev := range s.events.snapshot() {
		if ev.State != types.StateEnded || ev.Window == nil {
			continue
		}
		if ev.Window.Open(now) || s.events.isSummarized(ev.ID) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *ReportStore) MarkSummarized(_ context.Context, eventID string, at time.Time) error {
	s.events.markSummarized(eventID, at)
	return nil
}
