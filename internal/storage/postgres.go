package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pritechvior/project-wizard/internal/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements SubmissionRepository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository connects to PostgreSQL and verifies the connection
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 1
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const submissionColumns = `id, reference_code, session_id, idempotency_key, user_type, mode, estimated_cost, payload, remote_id, status, created_at`

// CreateSubmission inserts a submission record
func (r *PostgresRepository) CreateSubmission(ctx context.Context, rec *models.SubmissionRecord) error {
	query := `INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.ReferenceCode,
		rec.SessionID,
		rec.IdempotencyKey,
		string(rec.UserType),
		string(rec.Mode),
		rec.EstimatedCost,
		[]byte(rec.Payload),
		nullString(rec.RemoteID),
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetSubmissionByReference retrieves a submission by its reference code
func (r *PostgresRepository) GetSubmissionByReference(ctx context.Context, code string) (*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE reference_code = $1`
	return r.getOne(ctx, query, code)
}

// GetSubmissionByIdempotencyKey retrieves the submission recorded for a key
func (r *PostgresRepository) GetSubmissionByIdempotencyKey(ctx context.Context, key string) (*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE idempotency_key = $1`
	return r.getOne(ctx, query, key)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.SubmissionRecord, error) {
	rec, err := scanSubmission(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return rec, nil
}

// ListSubmissions returns submissions matching filters, newest first
func (r *PostgresRepository) ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.UserType != "" {
		query += fmt.Sprintf(" AND user_type = $%d", argNum)
		args = append(args, string(filters.UserType))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	result := make([]*models.SubmissionRecord, 0)
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return result, nil
}

func scanSubmission(row pgx.Row) (*models.SubmissionRecord, error) {
	var rec models.SubmissionRecord
	var userType, mode, status string
	var payload []byte
	var remoteID sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.ReferenceCode,
		&rec.SessionID,
		&rec.IdempotencyKey,
		&userType,
		&mode,
		&rec.EstimatedCost,
		&payload,
		&remoteID,
		&status,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.UserType = models.UserType(userType)
	rec.Mode = models.Mode(mode)
	rec.Status = models.SubmissionStatus(status)
	rec.Payload = payload
	rec.RemoteID = remoteID.String

	return &rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
