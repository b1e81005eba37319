package types

import "time"

// ClaimRecord is the durable proof that a recipient claimed an event's
// certificate.  At most one exists per (event, recipient); created only by
// the claim service, never updated, never deleted.
type ClaimRecord struct {
	EventID     string    `json:"event_id"`
	RecipientID string    `json:"recipient_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
	ArtifactRef string    `json:"artifact_ref"`
}

// ClaimRequest is a recipient's claim attempt.  The token identifies the
// event; who is claiming was established upstream by auth and arrives here
// as an explicit parameter.
type ClaimRequest struct {
	ClaimToken  string `json:"claim_token"`
	RecipientID string `json:"recipient_id"`
}

// ClaimResponse reports the outcome of a granted (or idempotently repeated)
// claim.
type ClaimResponse struct {
	EventID        string    `json:"event_id"`
	RecipientID    string    `json:"recipient_id"`
	Code           string    `json:"code"`
	ArtifactRef    string    `json:"artifact_ref"`
	ClaimedAt      time.Time `json:"claimed_at"`
	AlreadyClaimed bool      `json:"already_claimed"`
}
