package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/token"
	"github.com/attendly/certserver/internal/certify/types"
)

// Renderer is the slice of the compositor the services need.  Satisfied by
// render.Renderer; stubbed in tests.
type Renderer interface {
	Render(tpl types.Template, recipientName, recipientCode string) ([]byte, error)
	Validate(tpl types.Template) error
	Decode(templateImage []byte) (width, height int, err error)
}

// WindowPolicy fixes the claim window length.  The duration is frozen onto
// the event at the end-event transition, so later policy changes never move
// an already-opened deadline.
type WindowPolicy struct {
	Duration time.Duration
}

// EventService owns the event lifecycle: creation and the single
// Active→Ended transition that freezes the certificate template and opens
// the claim window.
type EventService struct {
	events   store.EventStore
	renderer Renderer
	policy   WindowPolicy
	baseURL  string
	now      func() time.Time
}

func NewEventService(events store.EventStore, renderer Renderer, policy WindowPolicy, baseURL string, now func() time.Time) *EventService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if policy.Duration <= 0 {
		policy.Duration = 600 * time.Second
	}
	return &EventService{
		events:   events,
		renderer: renderer,
		policy:   policy,
		baseURL:  baseURL,
		now:      now,
	}
}

func (s *EventService) Create(ctx context.Context, req types.CreateEventRequest) (types.Event, error) {
	if strings.TrimSpace(req.OrganizerID) == "" {
		return types.Event{}, ErrInvalidOrganizerID
	}
	if strings.TrimSpace(req.Title) == "" {
		return types.Event{}, ErrInvalidTitle
	}

	ev := types.Event{
		ID:               uuid.NewString(),
		OrganizerID:      strings.TrimSpace(req.OrganizerID),
		OrganizerName:    strings.TrimSpace(req.OrganizerName),
		OrganizerContact: strings.TrimSpace(req.OrganizerContact),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		State:            types.StateActive,
		CreatedAt:        s.now(),
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return types.Event{}, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

func (s *EventService) Get(ctx context.Context, eventID string) (types.Event, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return types.Event{}, ErrInvalidEventID
	}
	ev, err := s.events.Get(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return types.Event{}, ErrEventNotFound
	}
	if err != nil {
		return types.Event{}, err
	}
	return ev, nil
}

// End performs the Active→Ended transition.  Placements arrive in preview
// space; they are scaled to the template's native resolution here, before
// anything is persisted, so the compositor never sees display pixels.  A
// probe render runs first: a broken template fails the organizer now rather
// than a recipient mid-window.
func (s *EventService) End(ctx context.Context, req types.EndEventRequest) (types.EndEventResult, error) {
	if strings.TrimSpace(req.EventID) == "" {
		return types.EndEventResult{}, ErrInvalidEventID
	}
	if strings.TrimSpace(req.OrganizerID) == "" {
		return types.EndEventResult{}, ErrInvalidOrganizerID
	}
	if len(req.TemplateImage) == 0 || req.PreviewWidth <= 0 || req.PreviewHeight <= 0 ||
		req.NamePlacement.FontSize <= 0 {
		return types.EndEventResult{}, ErrIncompleteTemplate
	}

	ev, err := s.events.Get(ctx, req.EventID)
	if errors.Is(err, store.ErrNotFound) {
		return types.EndEventResult{}, ErrEventNotFound
	}
	if err != nil {
		return types.EndEventResult{}, err
	}
	if ev.OrganizerID != strings.TrimSpace(req.OrganizerID) {
		return types.EndEventResult{}, ErrNotOrganizer
	}
	if ev.State != types.StateActive {
		return types.EndEventResult{}, ErrAlreadyEnded
	}

	nativeW, nativeH, err := s.renderer.Decode(req.TemplateImage)
	if err != nil {
		return types.EndEventResult{}, err
	}

	scaleX := float64(nativeW) / float64(req.PreviewWidth)
	scaleY := float64(nativeH) / float64(req.PreviewHeight)
	tpl := types.Template{
		Image:        req.TemplateImage,
		NativeWidth:  nativeW,
		NativeHeight: nativeH,
		Name:         req.NamePlacement.Scale(scaleX, scaleY),
		Code:         req.CodePlacement.Scale(scaleX, scaleY),
	}

	if err := s.renderer.Validate(tpl); err != nil {
		return types.EndEventResult{}, err
	}

	now := s.now()
	window := types.ClaimWindow{OpensAt: now, Duration: s.policy.Duration}

	err = s.events.End(ctx, ev.ID, tpl, window, now)
	if errors.Is(err, store.ErrStaleState) {
		// A concurrent end-event call got there first.
		return types.EndEventResult{}, ErrAlreadyEnded
	}
	if errors.Is(err, store.ErrNotFound) {
		return types.EndEventResult{}, ErrEventNotFound
	}
	if err != nil {
		return types.EndEventResult{}, err
	}

	return types.EndEventResult{
		ClaimURL:      token.ClaimURL(s.baseURL, ev.ID),
		WindowSeconds: int(window.Duration.Seconds()),
		OpensAt:       window.OpensAt,
		ClosesAt:      window.ClosesAt(),
	}, nil
}

// ClaimQR renders the event's claim URL as a QR PNG.  Only ended events
// have one.
func (s *EventService) ClaimQR(ctx context.Context, eventID string, size int) ([]byte, error) {
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.State != types.StateEnded {
		return nil, ErrNotEnded
	}
	return token.QRPNG(token.ClaimURL(s.baseURL, ev.ID), size)
}
