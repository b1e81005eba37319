package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/attendly/certserver/internal/db"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/types"
)

type ClaimStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewClaimStore(db *sql.DB, writer *dbpkg.Worker) *ClaimStore {
	return &ClaimStore{db: db, writer: writer}
}

// Create is the critical section of the whole system: the insert and the
// "who won" decision happen in one transaction on the (event_id,
// recipient_id) primary key.  Under concurrent attempts for the same
// recipient exactly one caller sees created=true; everyone else gets the
// record that beat them.
func (s *ClaimStore) Create(ctx context.Context, rec types.ClaimRecord) (bool, types.ClaimRecord, error) {
	if rec.ClaimedAt.IsZero() {
		rec.ClaimedAt = time.Now().UTC()
	}

	var (
		created  bool
		existing types.ClaimRecord
	)
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO claims(event_id, recipient_id, claimed_at_ms, artifact_ref)
VALUES (?, ?, ?, ?)
ON CONFLICT(event_id, recipient_id) DO NOTHING;
`,
			rec.EventID, rec.RecipientID,
			rec.ClaimedAt.UTC().UnixMilli(), rec.ArtifactRef,
		)
		if err != nil {
			return fmt.Errorf("Create claim insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Create claim rows: %w", err)
		}
		if n == 1 {
			created = true
			existing = rec
			return nil
		}

		existing, err = scanClaim(tx.QueryRowContext(ctx, `
SELECT event_id, recipient_id, claimed_at_ms, artifact_ref
FROM claims WHERE event_id = ? AND recipient_id = ?;
`, rec.EventID, rec.RecipientID))
		if err != nil {
			return fmt.Errorf("Create claim read existing: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, types.ClaimRecord{}, err
	}
	return created, existing, nil
}

func (s *ClaimStore) Get(ctx context.Context, eventID, recipientID string) (types.ClaimRecord, error) {
	rec, err := scanClaim(s.db.QueryRowContext(ctx, `
SELECT event_id, recipient_id, claimed_at_ms, artifact_ref
FROM claims WHERE event_id = ? AND recipient_id = ?;
`, eventID, recipientID))
	if err == sql.ErrNoRows {
		return types.ClaimRecord{}, store.ErrNotFound
	}
	if err != nil {
		return types.ClaimRecord{}, fmt.Errorf("Get claim: %w", err)
	}
	return rec, nil
}

func scanClaim(row rowScanner) (types.ClaimRecord, error) {
	var (
		rec       types.ClaimRecord
		claimedMs int64
	)
	if err := row.Scan(&rec.EventID, &rec.RecipientID, &claimedMs, &rec.ArtifactRef); err != nil {
		return types.ClaimRecord{}, err
	}
	rec.ClaimedAt = time.UnixMilli(claimedMs).UTC()
	return rec, nil
}
