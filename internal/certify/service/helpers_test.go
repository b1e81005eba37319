package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/attendly/certserver/internal/certify/service"
	"github.com/attendly/certserver/internal/certify/store/memory"
	"github.com/attendly/certserver/internal/certify/types"
)

const testBaseURL = "https://certs.example.com"

// stubRenderer stands in for the image compositor.  It reports fixed
// template dimensions and counts how many renders actually ran, which is
// what the concurrency tests assert on.
type stubRenderer struct {
	renders    atomic.Int64
	failRender bool
	failProbe  bool
	decodeErr  error
	nativeW    int
	nativeH    int
}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{nativeW: 1600, nativeH: 1200}
}

func (r *stubRenderer) Render(tpl types.Template, recipientName, recipientCode string) ([]byte, error) {
	r.renders.Add(1)
	if r.failRender {
		return nil, errors.New("render failed")
	}
	return []byte(fmt.Sprintf("png:%s:%s", recipientName, recipientCode)), nil
}

func (r *stubRenderer) Validate(tpl types.Template) error {
	if r.failProbe {
		return errors.New("probe render failed")
	}
	return nil
}

func (r *stubRenderer) Decode(templateImage []byte) (int, int, error) {
	if r.decodeErr != nil {
		return 0, 0, r.decodeErr
	}
	return r.nativeW, r.nativeH, nil
}

// clock is a settable test clock shared by the services under test.
type clock struct {
	now atomic.Value
}

func newClock(start time.Time) *clock {
	c := &clock{}
	c.now.Store(start)
	return c
}

func (c *clock) Now() time.Time          { return c.now.Load().(time.Time) }
func (c *clock) Set(t time.Time)         { c.now.Store(t) }
func (c *clock) Advance(d time.Duration) { c.now.Store(c.Now().Add(d)) }

// stack bundles in-memory stores and the services wired over them.
type stack struct {
	events        *memory.EventStore
	registrations *memory.RegistrationStore
	claims        *memory.ClaimStore
	artifacts     *memory.ArtifactStore
	reports       *memory.ReportStore
	renderer      *stubRenderer
	clock         *clock

	eventSvc *service.EventService
	regSvc   *service.RegistrationService
	claimSvc *service.ClaimService
	repSvc   *service.ReportService
}

func newStack(t *testing.T) *stack {
	t.Helper()

	s := &stack{
		events:        memory.NewEventStore(),
		registrations: memory.NewRegistrationStore(),
		claims:        memory.NewClaimStore(),
		artifacts:     memory.NewArtifactStore(),
		renderer:      newStubRenderer(),
		clock:         newClock(time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)),
	}
	s.reports = memory.NewReportStore(s.events, s.registrations, s.claims)

	now := s.clock.Now
	s.eventSvc = service.NewEventService(s.events, s.renderer, service.WindowPolicy{}, testBaseURL, now)
	s.regSvc = service.NewRegistrationService(s.events, s.registrations, now)
	s.claimSvc = service.NewClaimService(s.events, s.registrations, s.claims, s.artifacts, s.renderer, now)
	s.repSvc = service.NewReportService(s.events, s.reports)
	return s
}

// createEvent makes a fresh Active event owned by "org-1".
func (s *stack) createEvent(t *testing.T, title string) types.Event {
	t.Helper()
	ev, err := s.eventSvc.Create(context.Background(), types.CreateEventRequest{
		OrganizerID:      "org-1",
		OrganizerName:    "Dana Organizer",
		OrganizerContact: "dana@example.com",
		Title:            title,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}

// register adds a recipient, advancing the clock so registration order is
// unambiguous.
func (s *stack) register(t *testing.T, eventID, recipientID, name string) {
	t.Helper()
	s.clock.Advance(time.Second)
	_, err := s.regSvc.Register(context.Background(), types.RegisterRequest{
		EventID:       eventID,
		RecipientID:   recipientID,
		RecipientName: name,
	})
	if err != nil {
		t.Fatalf("register %s: %v", recipientID, err)
	}
}

// endEvent runs the Active→Ended transition with a plausible template.
func (s *stack) endEvent(t *testing.T, eventID string) types.EndEventResult {
	t.Helper()
	res, err := s.eventSvc.End(context.Background(), types.EndEventRequest{
		EventID:       eventID,
		OrganizerID:   "org-1",
		TemplateImage: []byte("fake-template-bytes"),
		NamePlacement: types.Placement{X: 400, Y: 300, FontSize: 36},
		CodePlacement: types.Placement{X: 400, Y: 500},
		PreviewWidth:  800,
		PreviewHeight: 600,
	})
	if err != nil {
		t.Fatalf("end event: %v", err)
	}
	return res
}

func claimToken(eventID string) string {
	return testBaseURL + "/claim/" + eventID
}

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
