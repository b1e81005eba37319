package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/attendly/certserver/internal/db"

	"github.com/attendly/certserver/internal/certify/store"
)

// ArtifactStore keeps rendered certificates as blobs addressed by ref.
// Renders are deterministic, so replacing an existing ref only ever rewrites
// identical bytes.
type ArtifactStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewArtifactStore(db *sql.DB, writer *dbpkg.Worker) *ArtifactStore {
	return &ArtifactStore{db: db, writer: writer}
}

func (s *ArtifactStore) Put(ctx context.Context, rec store.ArtifactRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO artifacts(ref, event_id, recipient_id, data, created_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(ref) DO UPDATE SET data = excluded.data;
`,
			rec.Ref, rec.EventID, rec.RecipientID, rec.Data,
			rec.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Put artifact %s: %w", rec.Ref, err)
		}
		return nil
	})
}

func (s *ArtifactStore) Get(ctx context.Context, ref string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM artifacts WHERE ref = ?;`, ref).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get artifact %s: %w", ref, err)
	}
	return data, nil
}

func (s *ArtifactStore) Exists(ctx context.Context, ref string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE ref = ?;`, ref).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Exists artifact %s: %w", ref, err)
	}
	return true, nil
}
