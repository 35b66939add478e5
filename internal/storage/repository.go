package storage

import (
	"context"
	"errors"

	"github.com/pritechvior/project-wizard/internal/models"
)

// ErrDuplicateSubmission is returned when a reference code or idempotency
// key is already recorded
var ErrDuplicateSubmission = errors.New("submission already recorded")

// SubmissionRepository persists submission records. Lookups return nil, nil
// when nothing matches.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, rec *models.SubmissionRecord) error
	GetSubmissionByReference(ctx context.Context, code string) (*models.SubmissionRecord, error)
	GetSubmissionByIdempotencyKey(ctx context.Context, key string) (*models.SubmissionRecord, error)
	ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, error)

	Ping(ctx context.Context) error
	Close() error
}

// SessionStore persists in-progress wizard sessions. GetSession returns
// nil, nil for unknown or expired sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	CountSessions(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
