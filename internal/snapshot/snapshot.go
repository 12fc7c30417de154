// Package snapshot caches the last fetched board data in a local sqlite
// database so the TUI can paint a stale board immediately on startup while
// the real fetch is in flight. The backend stays the source of truth; the
// snapshot is overwritten on every successful refetch.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tOgg1/leadboard/internal/models"
)

// Store wraps the snapshot database.
type Store struct {
	db *sql.DB
}

// ErrNoSnapshot is returned when no snapshot of the requested kind exists
// for the account.
var ErrNoSnapshot = errors.New("no snapshot")

const (
	kindLeads     = "leads"
	kindPipelines = "pipelines"
)

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to snapshot database: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS board_snapshots (
			account_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (account_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS board_snapshots_fetched_idx ON board_snapshots(fetched_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize snapshot schema: %w", err)
		}
	}
	return nil
}

// SaveLeads replaces the account's lead snapshot.
func (s *Store) SaveLeads(ctx context.Context, accountID string, leads []models.Lead) error {
	return s.save(ctx, accountID, kindLeads, leads)
}

// LoadLeads returns the account's lead snapshot and when it was fetched.
func (s *Store) LoadLeads(ctx context.Context, accountID string) ([]models.Lead, time.Time, error) {
	var leads []models.Lead
	fetchedAt, err := s.load(ctx, accountID, kindLeads, &leads)
	if err != nil {
		return nil, time.Time{}, err
	}
	return leads, fetchedAt, nil
}

// SavePipelines replaces the account's pipeline snapshot.
func (s *Store) SavePipelines(ctx context.Context, accountID string, pipelines []models.Pipeline) error {
	return s.save(ctx, accountID, kindPipelines, pipelines)
}

// LoadPipelines returns the account's pipeline snapshot and when it was
// fetched.
func (s *Store) LoadPipelines(ctx context.Context, accountID string) ([]models.Pipeline, time.Time, error) {
	var pipelines []models.Pipeline
	fetchedAt, err := s.load(ctx, accountID, kindPipelines, &pipelines)
	if err != nil {
		return nil, time.Time{}, err
	}
	return pipelines, fetchedAt, nil
}

// Clear drops every snapshot for the account, as on logout.
func (s *Store) Clear(ctx context.Context, accountID string) error {
	if s == nil || s.db == nil {
		return errors.New("snapshot store unavailable")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM board_snapshots WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, accountID, kind string, payload any) error {
	if s == nil || s.db == nil {
		return errors.New("snapshot store unavailable")
	}
	if accountID == "" {
		return errors.New("account id required")
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO board_snapshots (account_id, kind, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id, kind) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, accountID, kind, string(encoded), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, accountID, kind string, out any) (time.Time, error) {
	if s == nil || s.db == nil {
		return time.Time{}, errors.New("snapshot store unavailable")
	}

	var payload, fetchedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at FROM board_snapshots
		WHERE account_id = ? AND kind = ?
	`, accountID, kind).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load %s snapshot: %w", kind, err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}

	when, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		when = time.Time{}
	}
	return when, nil
}
