// Package postgresql implements the race store on PostgreSQL using the pgx
// stdlib driver over database/sql.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// RaceStore holds the connection pool for the races schema.
type RaceStore struct {
	db *sql.DB
}

// sessionParams bound every pooled connection so a wedged statement cannot
// stall the refresh cycle.
var sessionParams = map[string]string{
	"lock_timeout":                        "5s",
	"statement_timeout":                   "5s",
	"idle_in_transaction_session_timeout": "5s",
}

// NewRaceStore opens a connection pool against dsn, applies session
// parameters, and ensures the schema exists.
func NewRaceStore(ctx context.Context, dsn string) (*RaceStore, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		log.Error().Err(err).Msg("failed to ping db")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for param, value := range sessionParams {
		query := fmt.Sprintf("ALTER ROLE CURRENT_USER SET %s = %s", pq.QuoteIdentifier(param), pq.QuoteLiteral(value))
		if _, err := sqlDB.ExecContext(ctx, query); err != nil {
			// Not every deployment role may alter itself; fall back to
			// per-statement defaults rather than failing startup.
			log.Warn().Err(err).Str("param", param).Msg("could not set session default")
		}
	}

	s := &RaceStore{db: sqlDB}
	if err := s.ensureSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Ping reports whether the database is reachable.
func (s *RaceStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *RaceStore) Close() error {
	return s.db.Close()
}
