// Package postgres implements the append-only audit trail on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/numline-systems/numline-ingest/internal/models"
)

// AuditStore appends immutable audit entries to the audit_entries table.
// The table has no UPDATE or DELETE path anywhere in this codebase.
type AuditStore struct {
	pool *pgxpool.Pool
}

// New creates a connection pool and verifies connectivity.
func New(ctx context.Context, connString string) (*AuditStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &AuditStore{pool: pool}, nil
}

func (s *AuditStore) Append(ctx context.Context, entry models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO audit_entries (id, e164_number, country, state, type, status, version, event_time, correlation_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		uuid.New().String(),
		entry.E164Number, entry.Country, entry.State, entry.Type,
		string(entry.Status), entry.Version, entry.EventTime,
		nullable(entry.CorrelationID), nullable(entry.UserID),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListByKey returns the audit history for one number, oldest first. Audit
// queries reference entries only by key and event time.
func (s *AuditStore) ListByKey(ctx context.Context, key string) ([]models.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT e164_number, country, state, type, status, version, event_time, correlation_id, user_id
		FROM audit_entries
		WHERE e164_number = $1
		ORDER BY event_time ASC, created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var status string
		var correlationID, userID *string
		if err := rows.Scan(
			&entry.E164Number, &entry.Country, &entry.State, &entry.Type,
			&status, &entry.Version, &entry.EventTime, &correlationID, &userID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Status = models.Status(status)
		if correlationID != nil {
			entry.CorrelationID = *correlationID
		}
		if userID != nil {
			entry.UserID = *userID
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Ping reports whether the store is reachable.
func (s *AuditStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *AuditStore) Close() {
	s.pool.Close()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
