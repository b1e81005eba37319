package types

import (
	"fmt"
	"time"
)

// Registration records that a recipient signed up for an event.  Unique per
// (event, recipient); never mutated after insert.
type Registration struct {
	EventID       string    `json:"event_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientName string    `json:"recipient_name"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// RegisterRequest signs a recipient up for an event.  Identity and display
// name come from the authenticated caller, resolved upstream.
type RegisterRequest struct {
	EventID       string `json:"-"`
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
}

// FormatCode renders a recipient's 1-based registration rank as the
// certificate code.  Zero-padded to six digits ("000001"); registrant counts
// are assumed to stay well below the seven-digit boundary.
func FormatCode(sequenceIndex int) string {
	return fmt.Sprintf("%06d", sequenceIndex)
}
