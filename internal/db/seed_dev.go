package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Optional: recipients to pre-register for the starter event, in
	// order, so dev claims get predictable codes.
	Recipients []string
}

func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	// Minimal "starter event" so the claim flow can be exercised without
	// going through event creation first.
	if _, err := db.ExecContext(ctx, `
INSERT INTO events(
  event_id, organizer_id, organizer_name, organizer_contact,
  title, description, state, created_at_ms, updated_at_ms
) VALUES ('ev_dev', 'org_dev', 'Dev Organizer', 'dev@example.com',
  'Dev Event', 'Seeded for local development', 'active', ?, ?)
ON CONFLICT(event_id) DO NOTHING;
`, now, now); err != nil {
		return fmt.Errorf("seed event ev_dev: %w", err)
	}

	for i, rid := range opt.Recipients {
		if rid == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO registrations(event_id, recipient_id, recipient_name, registered_at_ms)
VALUES ('ev_dev', ?, ?, ?)
ON CONFLICT(event_id, recipient_id) DO NOTHING;
`, rid, fmt.Sprintf("Dev Recipient %d", i+1), now+int64(i)); err != nil {
			return fmt.Errorf("seed registration %s: %w", rid, err)
		}
	}

	return nil
}
