package types

import (
	"fmt"
	"time"
)

// EventState is the stored lifecycle state of an event.  Only two values are
// persisted: whether the claim window is still open is a function of time,
// never a stored flag (see ClaimWindow.Open).
type EventState string

const (
	StateActive EventState = "active"
	StateEnded  EventState = "ended"
)

// Derived statuses reported to callers.  "claim_open" and "claim_closed" are
// both StateEnded observed at different times.
const (
	StatusActive      = "active"
	StatusClaimOpen   = "claim_open"
	StatusClaimClosed = "claim_closed"
)

// Placement positions one text field on the certificate template, in the
// template's native pixel space.  Coordinates arriving from the organizer's
// preview must be converted with Scale before they are persisted.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"font_size,omitempty"`
}

// Scale converts a preview-space placement to native space.  Font size scales
// with the horizontal factor only; text aspect is not independently
// adjustable.
func (p Placement) Scale(scaleX, scaleY float64) Placement {
	return Placement{
		X:        p.X * scaleX,
		Y:        p.Y * scaleY,
		FontSize: p.FontSize * scaleX,
	}
}

// Template is the certificate template frozen at the end-event transition:
// the source image plus the two field placements, already in native space.
type Template struct {
	Image        []byte    `json:"-"`
	NativeWidth  int       `json:"native_width"`
	NativeHeight int       `json:"native_height"`
	Name         Placement `json:"name"`
	Code         Placement `json:"code"`
}

// ClaimWindow is the wall-clock interval during which claims are accepted.
type ClaimWindow struct {
	OpensAt  time.Time     `json:"opens_at"`
	Duration time.Duration `json:"-"`
}

// ClosesAt returns the instant the window shuts.
func (w ClaimWindow) ClosesAt() time.Time {
	return w.OpensAt.Add(w.Duration)
}

// Open reports whether claims are accepted at the given instant.  Monotonic
// in now: once false, never true again.
func (w ClaimWindow) Open(now time.Time) bool {
	return now.Before(w.ClosesAt())
}

// Event is an organizer's event.  Template and Window are nil until the
// Active→Ended transition sets both atomically.
type Event struct {
	ID               string
	OrganizerID      string
	OrganizerName    string
	OrganizerContact string
	Title            string
	Description      string
	State            EventState
	Template         *Template
	Window           *ClaimWindow
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Status derives the caller-facing lifecycle status at the given instant.
func (e Event) Status(now time.Time) string {
	if e.State == StateActive {
		return StatusActive
	}
	if e.Window != nil && e.Window.Open(now) {
		return StatusClaimOpen
	}
	return StatusClaimClosed
}

// CreateEventRequest creates a new Active event.  Organizer identity comes
// from the authenticated caller, resolved upstream.
type CreateEventRequest struct {
	OrganizerID      string `json:"organizer_id"`
	OrganizerName    string `json:"organizer_name"`
	OrganizerContact string `json:"organizer_contact"`
	Title            string `json:"title"`
	Description      string `json:"description"`
}

// EndEventRequest carries the organizer's end-event action: the template
// image plus the two placements as positioned on the preview.  Placements
// are in preview space here; the service converts them to the template's
// native space before anything is persisted.
type EndEventRequest struct {
	EventID       string    `json:"-"`
	OrganizerID   string    `json:"organizer_id"`
	TemplateImage []byte    `json:"template_image"`
	NamePlacement Placement `json:"name_placement"`
	CodePlacement Placement `json:"code_placement"`
	PreviewWidth  int       `json:"preview_width"`
	PreviewHeight int       `json:"preview_height"`
}

// EndEventResult reports the opened claim window.
type EndEventResult struct {
	ClaimURL      string    `json:"claim_url"`
	WindowSeconds int       `json:"window_seconds"`
	OpensAt       time.Time `json:"opens_at"`
	ClosesAt      time.Time `json:"closes_at"`
}

// ArtifactRef is the storage key for a recipient's rendered certificate.
func ArtifactRef(eventID, recipientID string) string {
	return fmt.Sprintf("cert-%s-%s.png", eventID, recipientID)
}
