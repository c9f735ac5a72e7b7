package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite persists each collection as one row of a document table. The
// record arrays are small enough (a local habit log) that whole-document
// rows keep the adapter contract identical to the JSON file backend.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database and creates the document table.
func OpenSQLite(dataSourceName string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrIO, err)
	}

	// Single writer; avoids SQLITE_BUSY under concurrent boundary calls.
	db.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrIO, err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM collections WHERE name = ?`, collection).Scan(&data)
	if err == sql.ErrNoRows {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrIO, collection, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrIO, collection, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

func (s *SQLite) Set(ctx context.Context, collection string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrIO, collection, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		collection, string(data))
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrIO, collection, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
