package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/attendly/certserver/internal/db"

	"github.com/attendly/certserver/internal/certify/types"
)

// ReportStore is the read-side projection over the registration and claim
// ledgers.  It never writes to either; its only write is the closure-summary
// bookkeeping column on events.
type ReportStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewReportStore(db *sql.DB, writer *dbpkg.Worker) *ReportStore {
	return &ReportStore{db: db, writer: writer}
}

func (s *ReportStore) EventCounts(ctx context.Context, eventID string) (int, int, error) {
	var registered, claimed int
	err := s.db.QueryRowContext(ctx, `
SELECT
  (SELECT COUNT(*) FROM registrations r WHERE r.event_id = ?),
  (SELECT COUNT(*) FROM claims c WHERE c.event_id = ?);
`, eventID, eventID).Scan(&registered, &claimed)
	if err != nil {
		return 0, 0, fmt.Errorf("EventCounts %s: %w", eventID, err)
	}
	return registered, claimed, nil
}

func (s *ReportStore) GlobalReport(ctx context.Context) ([]types.ReportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT
  e.event_id, e.title, e.organizer_name, e.organizer_contact,
  (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.event_id),
  (SELECT COUNT(*) FROM claims c WHERE c.event_id = e.event_id)
FROM events e
ORDER BY e.created_at_ms, e.event_id;
`)
	if err != nil {
		return nil, fmt.Errorf("GlobalReport query: %w", err)
	}
	defer rows.Close()

	var out []types.ReportRow
	for rows.Next() {
		var row types.ReportRow
		if err := rows.Scan(
			&row.EventID, &row.Title, &row.Organizer, &row.Contact,
			&row.Registered, &row.Claimed,
		); err != nil {
			return nil, fmt.Errorf("GlobalReport scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GlobalReport rows: %w", err)
	}
	return out, nil
}

// ClosedUnsummarized lists ended events whose claim window closed before now
// and that have not had their closure summary logged.  The template blob is
// deliberately not loaded.
func (s *ReportStore) ClosedUnsummarized(ctx context.Context, now time.Time) ([]types.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, organizer_id, organizer_name, organizer_contact,
       title, description, state, opens_at_ms, duration_s
FROM events
WHERE state = 'ended'
  AND summarized_at_ms IS NULL
  AND opens_at_ms + duration_s * 1000 <= ?;
`, now.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("ClosedUnsummarized query: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var (
			ev        types.Event
			opensAtMs sql.NullInt64
			durationS sql.NullInt64
		)
		if err := rows.Scan(
			&ev.ID, &ev.OrganizerID, &ev.OrganizerName, &ev.OrganizerContact,
			&ev.Title, &ev.Description, &ev.State, &opensAtMs, &durationS,
		); err != nil {
			return nil, fmt.Errorf("ClosedUnsummarized scan: %w", err)
		}
		ev.Window = &types.ClaimWindow{
			OpensAt:  time.UnixMilli(opensAtMs.Int64).UTC(),
			Duration: time.Duration(durationS.Int64) * time.Second,
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClosedUnsummarized rows: %w", err)
	}
	return out, nil
}

func (s *ReportStore) MarkSummarized(ctx context.Context, eventID string, at time.Time) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE events SET summarized_at_ms = ? WHERE event_id = ?;
`, at.UTC().UnixMilli(), eventID); err != nil {
			return fmt.Errorf("MarkSummarized %s: %w", eventID, err)
		}
		return nil
	})
}
