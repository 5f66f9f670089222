// Package capture persists framed wire traffic to PostgreSQL for offline
// protocol analysis. The dumper records both directions of a proxied
// connection; sessions are keyed by a caller-chosen label.
package capture

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Direction labels for recorded frames.
const (
	DirClientToServer = "c2s"
	DirServerToClient = "s2c"
)

// Store wraps a pgx connection pool for frame persistence.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store handle.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RecordFrame inserts one captured frame. frame is the complete wire frame
// including the length header.
func (s *Store) RecordFrame(ctx context.Context, sessionLabel, direction string, msgType byte, frame []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO frames (session_label, direction, msg_type, frame)
		 VALUES ($1, $2, $3, $4)`,
		sessionLabel, direction, int16(msgType), frame,
	)
	if err != nil {
		return fmt.Errorf("inserting frame: %w", err)
	}
	return nil
}

// FrameCount returns the number of frames recorded for a session label.
func (s *Store) FrameCount(ctx context.Context, sessionLabel string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM frames WHERE session_label = $1`, sessionLabel,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting frames for %q: %w", sessionLabel, err)
	}
	return n, nil
}

// TypeBreakdown returns per-message-type frame counts for a session label,
// the first question asked of any capture.
func (s *Store) TypeBreakdown(ctx context.Context, sessionLabel string) (map[byte]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT msg_type, count(*) FROM frames
		 WHERE session_label = $1 GROUP BY msg_type`, sessionLabel,
	)
	if err != nil {
		return nil, fmt.Errorf("querying type breakdown: %w", err)
	}
	defer rows.Close()

	out := make(map[byte]int64)
	for rows.Next() {
		var t int16
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scanning breakdown row: %w", err)
		}
		out[byte(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating breakdown rows: %w", err)
	}
	return out, nil
}
