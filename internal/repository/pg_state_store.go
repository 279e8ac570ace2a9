package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stamp_card/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxQuerier is the subset of *pgxpool.Pool the Postgres store needs
type PgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type pgStateStore struct {
	db           PgxQuerier
	defaultAdmin model.AdminCredentials
}

// NewPgStateStore creates a StateStore keeping the document in the app_state table
func NewPgStateStore(db PgxQuerier, defaultAdmin model.AdminCredentials) StateStore {
	return &pgStateStore{db: db, defaultAdmin: defaultAdmin}
}

func (s *pgStateStore) Driver() string { return "postgres" }

func (s *pgStateStore) Load(ctx context.Context) (*model.AppState, error) {
	var document []byte
	sql := `SELECT document FROM app_state WHERE id = 1`
	err := s.db.QueryRow(ctx, sql).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewAppState(s.defaultAdmin), nil
		}
		return nil, fmt.Errorf("failed to load state document: %w", err)
	}
	state, err := decodeState(document, s.defaultAdmin)
	if err != nil {
		log.Printf("WARN: stored state document is not valid, starting empty: %v", err)
		return model.NewAppState(s.defaultAdmin), nil
	}
	return state, nil
}

func (s *pgStateStore) Save(ctx context.Context, state *model.AppState) error {
	document, err := encodeState(state)
	if err != nil {
		return err
	}
	sql := `INSERT INTO app_state (id, document, updated_at) VALUES (1, $1, $2)
            ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.Exec(ctx, sql, document, time.Now()); err != nil {
		return fmt.Errorf("failed to save state document: %w", err)
	}
	return nil
}
