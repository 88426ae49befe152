// Package archive keeps an append-only local transcript of completed
// turns. It is a write-only record for later review; session state is
// never restored from it.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/todak-labs/todak/pkg/companion/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id             TEXT PRIMARY KEY,
	day            TEXT NOT NULL,
	ts             TEXT NOT NULL,
	user_text      TEXT NOT NULL,
	assistant_text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_day ON turns(day);
`

// Store is a sqlite-backed turn archive.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// AppendTurn records one completed exchange.
func (s *Store) AppendTurn(ctx context.Context, turn session.Turn) error {
	id := ulid.MustNew(ulid.Timestamp(turn.Timestamp), ulid.DefaultEntropy())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, day, ts, user_text, assistant_text) VALUES (?, ?, ?, ?, ?)`,
		id.String(),
		turn.Timestamp.Format("2006-01-02"),
		turn.Timestamp.Format(time.RFC3339),
		turn.UserText,
		turn.AssistantText,
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// CountForDay reports how many turns were archived on a given day.
func (s *Store) CountForDay(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turns WHERE day = ?`, day.Format("2006-01-02")).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
