package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"yt-dl-archiver/internal/model"
)

// Store is the persistent "already downloaded?" oracle. It answers
// Contains for (provider, id) pairs, records finished media in bulk, and
// renders the seed lines for the tool's own --download-archive file.
type Store struct {
	db *sql.DB
}

// Open initializes the archive database and runs migrations.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_archive (
		media_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		title TEXT NOT NULL,
		inserted_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		PRIMARY KEY (provider, media_id)
	);

	CREATE INDEX IF NOT EXISTS idx_media_archive_inserted ON media_archive(inserted_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Contains reports whether (provider, id) is recorded in the archive.
func (s *Store) Contains(ctx context.Context, provider, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM media_archive WHERE provider = ? AND media_id = ?`,
		provider, id,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query archive: %w", err)
	}
	return true, nil
}

// InsertAll records the given media, replacing existing rows so a later
// observation with a better title wins.
func (s *Store) InsertAll(ctx context.Context, media []model.MediaInfo) error {
	if len(media) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media_archive (media_id, provider, title)
		VALUES (?, ?, ?)
		ON CONFLICT (provider, media_id) DO UPDATE SET title = excluded.title
	`)
	if err != nil {
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, m := range media {
		title := m.Title
		if title == "" {
			title = "unknown (none-provided)"
		}
		if _, err := stmt.ExecContext(ctx, m.ID, m.Provider, title); err != nil {
			return fmt.Errorf("insert media %s: %w", m.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive insert: %w", err)
	}
	return nil
}

// ToolArchiveLines renders every archived entry in the download tool's own
// archive format ("<provider> <id>"), oldest first.
func (s *Store) ToolArchiveLines(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, media_id FROM media_archive ORDER BY inserted_at, provider, media_id`)
	if err != nil {
		return nil, fmt.Errorf("query archive lines: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	lines := []string{}
	for rows.Next() {
		var provider, id string
		if err := rows.Scan(&provider, &id); err != nil {
			return nil, fmt.Errorf("scan archive line: %w", err)
		}
		lines = append(lines, fmt.Sprintf("%s %s", provider, id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive lines: %w", err)
	}
	return lines, nil
}
