// Package sqlitestore persists flow state in SQLite so that flows survive a
// restart of a single broker instance.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-broker/flowstate"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store is a SQLite-backed flowstate.Store. Blobs are sealed before they are written.
type Store struct {
	sqlDB   *sql.DB
	codec   *flowstate.Codec
	nowTime func() time.Time
}

var (
	_ flowstate.Store   = (*Store)(nil)
	_ flowstate.Cleaner = (*Store)(nil)
)

type Option func(*Store)

// WithNowTime sets the clock used for expiry (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// Open opens the database at path and applies the schema.
func Open(path string, codec *flowstate.Codec, options ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("[sqlitestore Open] storage path is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("[sqlitestore Open] codec is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore Open] open sqlite db: %w", err)
	}
	// One writer at a time keeps take-and-delete free of SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("[sqlitestore Open] ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("[sqlitestore Open] apply schema: %w", err)
	}

	s := &Store{sqlDB: sqlDB, codec: codec, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Put(ctx context.Context, flowID string, state *flowstate.FlowState) error {
	if err := flowstate.ValidatePut(flowID, state); err != nil {
		return fmt.Errorf("[sqlitestore Put] %w", err)
	}
	blob, err := s.codec.Encode(flowID, state)
	if err != nil {
		return fmt.Errorf("[sqlitestore Put] %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO flow_states (flow_id, blob, created_at, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (flow_id) DO UPDATE SET
	blob = excluded.blob,
	created_at = excluded.created_at,
	expires_at = excluded.expires_at
`,
		flowID,
		blob,
		state.CreatedAt.UTC().UnixMilli(),
		state.ExpiresAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("[sqlitestore Put] upsert: %w", err)
	}
	return nil
}

// TakeAndInvalidate deletes the row and returns its contents in one statement.
func (s *Store) TakeAndInvalidate(ctx context.Context, flowID string) (*flowstate.FlowState, error) {
	if flowID == "" {
		return nil, fmt.Errorf("[sqlitestore TakeAndInvalidate] flow id is required")
	}

	var (
		blob      []byte
		expiresAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`DELETE FROM flow_states WHERE flow_id = ? RETURNING blob, expires_at`,
		flowID,
	).Scan(&blob, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("[sqlitestore TakeAndInvalidate] %w", flowstate.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore TakeAndInvalidate] delete: %w", err)
	}
	if s.nowTime().UTC().UnixMilli() >= expiresAt {
		return nil, fmt.Errorf("[sqlitestore TakeAndInvalidate] expired: %w", flowstate.ErrNotFound)
	}

	state, err := s.codec.Decode(flowID, blob)
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore TakeAndInvalidate] %w", err)
	}
	return state, nil
}

// Cleanup deletes expired rows.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM flow_states WHERE expires_at <= ?`,
		s.nowTime().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("[sqlitestore Cleanup] %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("[sqlitestore Cleanup] rows affected: %w", err)
	}
	return int(n), nil
}
