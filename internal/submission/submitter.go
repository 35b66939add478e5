package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/pricing"
	"github.com/pritechvior/project-wizard/internal/storage"
)

// ErrSubmissionFailed wraps every failure to create a request
var ErrSubmissionFailed = errors.New("submission failed")

// Mode selects how requests reach the backend
type Mode string

const (
	ModeRemote   Mode = "remote"   // POST to the backend
	ModeSimulate Mode = "simulate" // no backend call
)

// ParseMode validates a submit mode; empty means simulate
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeRemote:
		return ModeRemote, nil
	case ModeSimulate, "":
		return ModeSimulate, nil
	}
	return "", fmt.Errorf("unknown submit mode %q", s)
}

// Creator creates project requests on the backend
type Creator interface {
	CreateProjectRequest(ctx context.Context, payload interface{}, idempotencyKey string) (*backend.CreatedRequest, error)
}

// Result is the outcome of a submission
type Result struct {
	Record   *models.SubmissionRecord `json:"record"`
	Summary  models.SubmissionSummary `json:"summary"`
	Replayed bool                     `json:"replayed"`
}

// Option configures a Submitter
type Option func(*Submitter)

// WithClock overrides the time source used for reference codes
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		s.now = now
	}
}

// WithSimulateDelay makes simulated submissions wait before completing
func WithSimulateDelay(d time.Duration) Option {
	return func(s *Submitter) {
		s.simulateDelay = d
	}
}

// Submitter turns finished wizard sessions into submission records
type Submitter struct {
	mode          Mode
	creator       Creator
	repo          storage.SubmissionRepository
	estimator     *pricing.Estimator
	now           func() time.Time
	simulateDelay time.Duration
}

// NewSubmitter creates a submitter. creator may be nil in simulate mode.
func NewSubmitter(mode Mode, creator Creator, repo storage.SubmissionRepository, estimator *pricing.Estimator, opts ...Option) *Submitter {
	s := &Submitter{
		mode:      mode,
		creator:   creator,
		repo:      repo,
		estimator: estimator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the submit mode
func (s *Submitter) Mode() Mode {
	return s.mode
}

// ReferenceCode formats PV-<USERTYPE>-<last six digits of unix millis>
func ReferenceCode(ut models.UserType, at time.Time) string {
	return fmt.Sprintf("PV-%s-%06d", strings.ToUpper(string(ut)), at.UnixMilli()%1_000_000)
}

// Submit creates the request for a session. The session itself is not
// modified. A session whose idempotency key is already recorded gets the
// stored record back without another backend call.
func (s *Submitter) Submit(ctx context.Context, sess *models.Session, ref *models.ReferenceData) (*Result, error) {
	estimate := s.estimator.EstimateSession(sess, ref)

	existing, err := s.repo.GetSubmissionByIdempotencyKey(ctx, sess.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up submission: %v", ErrSubmissionFailed, err)
	}
	if existing != nil {
		slog.Info("returning recorded submission", "session_id", sess.ID, "reference", existing.ReferenceCode)
		return &Result{
			Record:   existing,
			Summary:  Summarize(sess, existing, estimate),
			Replayed: true,
		}, nil
	}

	payload := BuildPayload(sess, estimate.Total)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal payload: %v", ErrSubmissionFailed, err)
	}

	rec := &models.SubmissionRecord{
		ID:             uuid.NewString(),
		SessionID:      sess.ID,
		IdempotencyKey: sess.IdempotencyKey,
		UserType:       sess.UserType,
		Mode:           sess.Mode,
		EstimatedCost:  estimate.Total,
		Payload:        body,
	}

	switch s.mode {
	case ModeRemote:
		if s.creator == nil {
			return nil, fmt.Errorf("%w: no backend configured", ErrSubmissionFailed)
		}
		created, err := s.creator.CreateProjectRequest(ctx, payload, sess.IdempotencyKey)
		if err != nil {
			slog.Error("create request failed", "session_id", sess.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		rec.RemoteID = string(created.ID)
		rec.Status = models.SubmissionCreated
	default:
		if err := s.wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		rec.Status = models.SubmissionSimulated
	}

	if err := s.record(ctx, rec); err != nil {
		return nil, err
	}

	slog.Info("submission recorded",
		"session_id", sess.ID,
		"reference", rec.ReferenceCode,
		"status", rec.Status,
		"estimated_cost", rec.EstimatedCost,
	)

	return &Result{Record: rec, Summary: Summarize(sess, rec, estimate)}, nil
}

// record persists rec, moving to the next millisecond when two submissions
// of the same user type collide on a reference code
func (s *Submitter) record(ctx context.Context, rec *models.SubmissionRecord) error {
	at := s.now()
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		rec.CreatedAt = at.UTC()
		rec.ReferenceCode = ReferenceCode(rec.UserType, at)

		err = s.repo.CreateSubmission(ctx, rec)
		if !errors.Is(err, storage.ErrDuplicateSubmission) {
			break
		}

		// the key may have been recorded concurrently
		if existing, lookupErr := s.repo.GetSubmissionByIdempotencyKey(ctx, rec.IdempotencyKey); lookupErr == nil && existing != nil {
			*rec = *existing
			return nil
		}
		at = at.Add(time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to record submission: %v", ErrSubmissionFailed, err)
	}
	return nil
}

func (s *Submitter) wait(ctx context.Context) error {
	if s.simulateDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.simulateDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Summarize builds the confirmation summary of a submitted session
func Summarize(sess *models.Session, rec *models.SubmissionRecord, estimate pricing.Breakdown) models.SubmissionSummary {
	sum := models.SubmissionSummary{
		ReferenceCode:      rec.ReferenceCode,
		UserType:           sess.UserType,
		Mode:               sess.Mode,
		EstimatedCost:      rec.EstimatedCost,
		EstimatedCostLabel: pricing.FormatTSH(rec.EstimatedCost),
		Priority:           sess.Priority(),
		SubmittedAt:        rec.CreatedAt.Format("2 Jan 2006 15:04 MST"),
	}
	if rec.EstimatedCost == 0 {
		sum.EstimatedCost = estimate.Total
		sum.EstimatedCostLabel = estimate.Label
	}

	switch {
	case sess.Custom != nil:
		sum.Title = sess.Custom.ProjectTitle
		sum.Services = len(sess.Custom.SelectedServices)
		sum.Hardware = len(sess.Custom.HardwareNeeds)
		if sess.Template != nil {
			sum.BaseProject = sess.Template.Title
			sum.Category = sess.Template.Category
		}
	case sess.Project != nil:
		sum.Title = sess.Project.ProjectTitle
		sum.Category = sess.Project.ProjectCategory
		sum.Services = len(sess.Project.SelectedServices)
		sum.Hardware = len(sess.Project.HardwareNeeds)
	}
	return sum
}
