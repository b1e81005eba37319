package service

import "errors"

var (
	ErrInvalidEventID     = errors.New("event_id is required")
	ErrInvalidOrganizerID = errors.New("organizer_id is required")
	ErrInvalidRecipientID = errors.New("recipient_id is required")
	ErrInvalidTitle       = errors.New("title is required")

	// Event lifecycle misuse, organizer-facing.
	ErrEventNotFound      = errors.New("event not found")
	ErrNotOrganizer       = errors.New("caller is not the event's organizer")
	ErrIncompleteTemplate = errors.New("template image and both placements are required")
	ErrAlreadyEnded       = errors.New("event already ended")
	ErrNotEnded           = errors.New("event has not ended")

	// Registration ledger rules.
	ErrEventEnded        = errors.New("event is no longer active")
	ErrAlreadyRegistered = errors.New("recipient already registered")

	// Claim-time policy violations, recipient-facing.
	ErrNotRegistered = errors.New("recipient not registered for event")
	ErrWindowClosed  = errors.New("claim window is closed")

	ErrArtifactNotFound = errors.New("certificate not found")
)
