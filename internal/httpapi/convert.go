package httpapi

import (
	"time"

	"github.com/attendly/certserver/internal/certify/types"
)

// ── Events ───────────────────────────────────────────────────────────────────

// eventView is the wire shape for an event.  Status is derived from the
// clock at response time; the template image itself is never echoed back.
type eventView struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	OrganizerID      string     `json:"organizer_id"`
	OrganizerName    string     `json:"organizer_name,omitempty"`
	OrganizerContact string     `json:"organizer_contact,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ClaimOpensAt     *time.Time `json:"claim_opens_at,omitempty"`
	ClaimClosesAt    *time.Time `json:"claim_closes_at,omitempty"`
}

func eventToView(ev types.Event, now time.Time) eventView {
	v := eventView{
		ID:               ev.ID,
		Title:            ev.Title,
		Description:      ev.Description,
		OrganizerID:      ev.OrganizerID,
		OrganizerName:    ev.OrganizerName,
		OrganizerContact: ev.OrganizerContact,
		Status:           ev.Status(now),
		CreatedAt:        ev.CreatedAt,
	}
	if ev.Window != nil {
		opens := ev.Window.OpensAt
		closes := ev.Window.ClosesAt()
		v.ClaimOpensAt = &opens
		v.ClaimClosesAt = &closes
	}
	return v
}

// ── Registrations ────────────────────────────────────────────────────────────

type registerBody struct {
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name,omitempty"`
}

type registrationView struct {
	EventID       string    `json:"event_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientName string    `json:"recipient_name,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
}

func registrationToView(reg types.Registration) registrationView {
	return registrationView{
		EventID:       reg.EventID,
		RecipientID:   reg.RecipientID,
		RecipientName: reg.RecipientName,
		RegisteredAt:  reg.RegisteredAt,
	}
}
