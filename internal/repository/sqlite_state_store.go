package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"stamp_card/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS app_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	document TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

type sqliteStateStore struct {
	db           *sql.DB
	defaultAdmin model.AdminCredentials
}

// OpenSQLiteStateStore opens (or creates) the SQLite database at path and
// returns a StateStore on top of it. The caller closes the returned *sql.DB.
func OpenSQLiteStateStore(path string, defaultAdmin model.AdminCredentials) (StateStore, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &sqliteStateStore{db: db, defaultAdmin: defaultAdmin}, db, nil
}

func (s *sqliteStateStore) Driver() string { return "sqlite" }

func (s *sqliteStateStore) Load(ctx context.Context) (*model.AppState, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM app_state WHERE id = 1`).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewAppState(s.defaultAdmin), nil
		}
		return nil, fmt.Errorf("failed to load state document: %w", err)
	}
	state, err := decodeState([]byte(document), s.defaultAdmin)
	if err != nil {
		log.Printf("WARN: stored state document is not valid, starting empty: %v", err)
		return model.NewAppState(s.defaultAdmin), nil
	}
	return state, nil
}

func (s *sqliteStateStore) Save(ctx context.Context, state *model.AppState) error {
	document, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO app_state (id, document, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(document), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save state document: %w", err)
	}
	return nil
}
