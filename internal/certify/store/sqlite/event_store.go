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

type EventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEventStore(db *sql.DB, writer *dbpkg.Worker) *EventStore {
	return &EventStore{db: db, writer: writer}
}

func (s *EventStore) Create(ctx context.Context, ev types.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	nowMs := ev.CreatedAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO events(
  event_id, organizer_id, organizer_name, organizer_contact,
  title, description, state, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, 'active', ?, ?)
ON CONFLICT(event_id) DO NOTHING;
`,
			ev.ID, ev.OrganizerID, ev.OrganizerName, ev.OrganizerContact,
			ev.Title, ev.Description, nowMs, nowMs,
		)
		if err != nil {
			return fmt.Errorf("Create event insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("Create event rows: %w", err)
		}
		if n == 0 {
			return store.ErrDuplicate
		}
		return nil
	})
}

const eventColumns = `
  event_id, organizer_id, organizer_name, organizer_contact,
  title, description, state,
  template, native_width, native_height,
  name_x, name_y, name_font_size, code_x, code_y,
  opens_at_ms, duration_s,
  created_at_ms, updated_at_ms`

func (s *EventStore) Get(ctx context.Context, eventID string) (types.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+eventColumns+` FROM events WHERE event_id = ?;`, eventID)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return types.Event{}, store.ErrNotFound
	}
	if err != nil {
		return types.Event{}, fmt.Errorf("Get event %s: %w", eventID, err)
	}
	return ev, nil
}

// End freezes the template and claim window while flipping state, guarded by
// the current state so that at most one end-event call can win.
func (s *EventStore) End(ctx context.Context, eventID string, tpl types.Template, window types.ClaimWindow, now time.Time) error {
	nowMs := now.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE events SET
  state = 'ended',
  template = ?, native_width = ?, native_height = ?,
  name_x = ?, name_y = ?, name_font_size = ?,
  code_x = ?, code_y = ?,
  opens_at_ms = ?, duration_s = ?,
  updated_at_ms = ?
WHERE event_id = ? AND state = 'active';
`,
			tpl.Image, tpl.NativeWidth, tpl.NativeHeight,
			tpl.Name.X, tpl.Name.Y, tpl.Name.FontSize,
			tpl.Code.X, tpl.Code.Y,
			window.OpensAt.UTC().UnixMilli(), int64(window.Duration.Seconds()),
			nowMs, eventID,
		)
		if err != nil {
			return fmt.Errorf("End event update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("End event rows: %w", err)
		}
		if n == 1 {
			return nil
		}

		// Nothing transitioned: either the event is gone or it was
		// already ended by an earlier call.
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM events WHERE event_id = ?;`, eventID).Scan(&exists)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("End event check: %w", err)
		}
		return store.ErrStaleState
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (types.Event, error) {
	var (
		ev          types.Event
		template    []byte
		nativeW     sql.NullInt64
		nativeH     sql.NullInt64
		nameX       sql.NullFloat64
		nameY       sql.NullFloat64
		nameSize    sql.NullFloat64
		codeX       sql.NullFloat64
		codeY       sql.NullFloat64
		opensAtMs   sql.NullInt64
		durationS   sql.NullInt64
		createdAtMs int64
		updatedAtMs int64
	)

	err := row.Scan(
		&ev.ID, &ev.OrganizerID, &ev.OrganizerName, &ev.OrganizerContact,
		&ev.Title, &ev.Description, &ev.State,
		&template, &nativeW, &nativeH,
		&nameX, &nameY, &nameSize, &codeX, &codeY,
		&opensAtMs, &durationS,
		&createdAtMs, &updatedAtMs,
	)
	if err != nil {
		return types.Event{}, err
	}

	ev.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	ev.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()

	if ev.State == types.StateEnded {
		ev.Template = &types.Template{
			Image:        template,
			NativeWidth:  int(nativeW.Int64),
			NativeHeight: int(nativeH.Int64),
			Name:         types.Placement{X: nameX.Float64, Y: nameY.Float64, FontSize: nameSize.Float64},
			Code:         types.Placement{X: codeX.Float64, Y: codeY.Float64},
		}
		ev.Window = &types.ClaimWindow{
			OpensAt:  time.UnixMilli(opensAtMs.Int64).UTC(),
			Duration: time.Duration(durationS.Int64) * time.Second,
		}
	}
	return ev, nil
}
