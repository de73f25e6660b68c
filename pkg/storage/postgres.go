package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/opscart/k8s-capacity-console/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

const defaultListLimit = 50

// PostgresStore implements Store interface using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveMove journals one mutation attempt
func (s *PostgresStore) SaveMove(ctx context.Context, rec *models.MoveRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO moves (
			id, kind, pod_id, namespace, owner_kind, owner_name,
			source_node, target_node, target_pool,
			requested_cpu_millicores, requested_memory_bytes,
			status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Kind, rec.PodID, rec.Namespace, rec.OwnerKind, rec.OwnerName,
		rec.SourceNode, rec.TargetNode, rec.TargetPool,
		rec.RequestedCPU, rec.RequestedMemory,
		rec.Status, rec.ErrorMessage, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save move: %w", err)
	}
	return nil
}

const moveColumns = `
	id, kind, pod_id, namespace, owner_kind, owner_name,
	source_node, target_node, target_pool,
	requested_cpu_millicores, requested_memory_bytes,
	status, error_message, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMove(row rowScanner) (*models.MoveRecord, error) {
	var rec models.MoveRecord
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.PodID, &rec.Namespace, &rec.OwnerKind, &rec.OwnerName,
		&rec.SourceNode, &rec.TargetNode, &rec.TargetPool,
		&rec.RequestedCPU, &rec.RequestedMemory,
		&rec.Status, &rec.ErrorMessage, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMove retrieves a journal entry by ID
func (s *PostgresStore) GetMove(ctx context.Context, id string) (*models.MoveRecord, error) {
	query := `SELECT ` + moveColumns + ` FROM moves WHERE id = $1`

	rec, err := scanMove(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get move: %w", err)
	}
	return rec, nil
}

// ListMoves returns journal entries, newest first
func (s *PostgresStore) ListMoves(ctx context.Context, filter MoveFilter) ([]*models.MoveRecord, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}
	defer rows.Close()

	var records []*models.MoveRecord
	for rows.Next() {
		rec, err := scanMove(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func buildListQuery(filter MoveFilter) (string, []any) {
	var where []string
	var args []any

	if filter.Namespace != "" {
		args = append(args, filter.Namespace)
		where = append(where, fmt.Sprintf("namespace = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + moveColumns + ` FROM moves`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return query, args
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
