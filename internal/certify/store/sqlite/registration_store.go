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

type RegistrationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRegistrationStore(db *sql.DB, writer *dbpkg.Worker) *RegistrationStore {
	return &RegistrationStore{db: db, writer: writer}
}

func (s *RegistrationStore) Create(ctx context.Context, reg types.Registration) error {
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO registrations(event_id, recipient_id, recipient_name, registered_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(event_id, recipient_id) DO NOTHING;
`,
			reg.EventID, reg.RecipientID, reg.RecipientName,
			reg.RegisteredAt.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("Create registration insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Create registration rows: %w", err)
		}
		if n == 0 {
			return store.ErrDuplicate
		}
		return nil
	})
}

func (s *RegistrationStore) Delete(ctx context.Context, eventID, recipientID string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM registrations WHERE event_id = ? AND recipient_id = ?;
`, eventID, recipientID)
		if err != nil {
			return fmt.Errorf("Delete registration: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Delete registration rows: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *RegistrationStore) Get(ctx context.Context, eventID, recipientID string) (types.Registration, error) {
	var (
		reg   types.Registration
		regMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT event_id, recipient_id, recipient_name, registered_at_ms
FROM registrations WHERE event_id = ? AND recipient_id = ?;
`, eventID, recipientID).Scan(&reg.EventID, &reg.RecipientID, &reg.RecipientName, &regMs)
	if err == sql.ErrNoRows {
		return types.Registration{}, store.ErrNotFound
	}
	if err != nil {
		return types.Registration{}, fmt.Errorf("Get registration: %w", err)
	}
	reg.RegisteredAt = time.UnixMilli(regMs).UTC()
	return reg, nil
}

// SequenceIndex ranks the recipient's registration among all registrations
// for the event: 1-based, ordered by registration time, ties broken by
// insertion order (the autoincrement id).
func (s *RegistrationStore) SequenceIndex(ctx context.Context, eventID, recipientID string) (int, error) {
	var rank int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM registrations r
JOIN registrations me
  ON me.event_id = r.event_id AND me.recipient_id = ?
WHERE r.event_id = ?
  AND (r.registered_at_ms < me.registered_at_ms
       OR (r.registered_at_ms = me.registered_at_ms AND r.id <= me.id));
`, recipientID, eventID).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("SequenceIndex: %w", err)
	}
	if rank == 0 {
		return 0, store.ErrNotFound
	}
	return rank, nil
}
