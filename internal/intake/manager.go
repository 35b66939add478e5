// Package intake is the service layer over wizard sessions: it loads and
// saves sessions, resolves reference data, prices forms and submits them.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pritechvior/project-wizard/internal/catalog"
	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/notify"
	"github.com/pritechvior/project-wizard/internal/pricing"
	"github.com/pritechvior/project-wizard/internal/storage"
	"github.com/pritechvior/project-wizard/internal/submission"
	"github.com/pritechvior/project-wizard/internal/wizard"
)

// Common errors
var (
	ErrSessionNotFound  = errors.New("wizard session not found")
	ErrTemplateNotFound = catalog.ErrTemplateNotFound
	ErrSubmissionFailed = submission.ErrSubmissionFailed
)

// Manager defines the operations exposed over HTTP and the SDK
type Manager interface {
	Create(ctx context.Context, req models.CreateWizardRequest) (*View, error)
	Get(ctx context.Context, id string) (*View, error)
	Delete(ctx context.Context, id string) error
	UpdateField(ctx context.Context, id, name string, value interface{}) (*View, error)
	ToggleField(ctx context.Context, id, name, value string) (*View, error)
	Next(ctx context.Context, id string) (*View, error)
	Prev(ctx context.Context, id string) (*View, error)
	Estimate(ctx context.Context, id string) (*pricing.Breakdown, error)
	Submit(ctx context.Context, id string) (*submission.Result, error)
	ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, error)
	GetSubmission(ctx context.Context, referenceCode string) (*models.SubmissionRecord, error)
	ActiveSessions(ctx context.Context) (int, error)
}

// ReferenceLoader resolves reference data and templates
type ReferenceLoader interface {
	Load(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice)
	Template(ctx context.Context, ut models.UserType, idOrSlug string) (*models.ProjectTemplate, error)
}

// Publisher fans events out to live subscribers
type Publisher interface {
	Publish(sessionID, eventType string, data interface{})
	CloseSession(sessionID string)
}

// View is the rendered state of a session
type View struct {
	ID            string                  `json:"id"`
	Mode          models.Mode             `json:"mode"`
	UserType      models.UserType         `json:"user_type"`
	Status        models.SessionStatus    `json:"status"`
	Step          int                     `json:"step"`
	TotalSteps    int                     `json:"total_steps"`
	IsLastStep    bool                    `json:"is_last_step"`
	Section       wizard.SectionView      `json:"section"`
	Form          interface{}             `json:"form"`
	Template      *models.ProjectTemplate `json:"template,omitempty"`
	Estimate      pricing.Breakdown       `json:"estimate"`
	EstimateLabel string                  `json:"estimate_label"`
	Notices       []models.Notice         `json:"notices"`
	ReferenceCode string                  `json:"reference_code,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// IntakeManager implements Manager
type IntakeManager struct {
	sessions  storage.SessionStore
	repo      storage.SubmissionRepository
	loader    ReferenceLoader
	estimator *pricing.Estimator
	submitter *submission.Submitter
	events    Publisher
	locks     *keyedMutex
}

// NewManager creates a new IntakeManager. events may be nil.
func NewManager(
	sessions storage.SessionStore,
	repo storage.SubmissionRepository,
	loader ReferenceLoader,
	estimator *pricing.Estimator,
	submitter *submission.Submitter,
	events Publisher,
) *IntakeManager {
	return &IntakeManager{
		sessions:  sessions,
		repo:      repo,
		loader:    loader,
		estimator: estimator,
		submitter: submitter,
		events:    events,
		locks:     newKeyedMutex(),
	}
}

// Create starts a wizard session
func (m *IntakeManager) Create(ctx context.Context, req models.CreateWizardRequest) (*View, error) {
	ut, err := models.ParseUserType(req.UserType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", wizard.ErrInvalidUserType, req.UserType)
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", wizard.ErrInvalidMode, req.Mode)
	}

	var base *models.ProjectTemplate
	if mode == models.ModeCustomization {
		if req.TemplateID == "" {
			return nil, wizard.ErrTemplateRequired
		}
		base, err = m.loader.Template(ctx, ut, req.TemplateID)
		if err != nil {
			return nil, err
		}
	}

	w, err := wizard.New(mode, ut, base)
	if err != nil {
		return nil, err
	}

	if err := m.sessions.SaveSession(ctx, w.Session()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("wizard session created",
		"id", w.Session().ID,
		"mode", mode,
		"user_type", ut,
		"steps", w.TotalSteps(),
	)

	return m.view(ctx, w), nil
}

// ActiveSessions counts the sessions held by the store
func (m *IntakeManager) ActiveSessions(ctx context.Context) (int, error) {
	return m.sessions.CountSessions(ctx)
}

// Get returns the current view of a session
func (m *IntakeManager) Get(ctx context.Context, id string) (*View, error) {
	w, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.view(ctx, w), nil
}

// Delete discards a session and disconnects its subscribers
func (m *IntakeManager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	if _, err := m.load(ctx, id); err != nil {
		return err
	}
	if err := m.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if m.events != nil {
		m.events.CloseSession(id)
	}

	slog.Info("wizard session deleted", "id", id)
	return nil
}

// UpdateField sets one field and re-prices the form
func (m *IntakeManager) UpdateField(ctx context.Context, id, name string, value interface{}) (*View, error) {
	return m.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		return true, w.UpdateField(name, value)
	})
}

// ToggleField adds value to a list field, or removes it if present
func (m *IntakeManager) ToggleField(ctx context.Context, id, name, value string) (*View, error) {
	return m.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		return true, w.ToggleArrayField(name, value)
	})
}

// Next advances one step; on the last step it is a no-op
func (m *IntakeManager) Next(ctx context.Context, id string) (*View, error) {
	return m.navigate(ctx, id, wizard.EventNext)
}

// Prev goes back one step; on step 1 it is a no-op
func (m *IntakeManager) Prev(ctx context.Context, id string) (*View, error) {
	return m.navigate(ctx, id, wizard.EventPrev)
}

func (m *IntakeManager) navigate(ctx context.Context, id string, ev wizard.Event) (*View, error) {
	return m.mutate(ctx, id, func(w *wizard.Wizard) (bool, error) {
		if w.Session().IsSubmitted() {
			return false, wizard.ErrSessionSubmitted
		}
		moved := w.Move(ev)
		slog.Debug("wizard navigation", "id", id, "event", ev.String(), "step", w.Step(), "moved", moved)
		return moved, nil
	})
}

// Estimate prices the session's current form
func (m *IntakeManager) Estimate(ctx context.Context, id string) (*pricing.Breakdown, error) {
	w, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ref, _ := m.loader.Load(ctx, w.Session().UserType)
	b := m.estimator.EstimateSession(w.Session(), ref)
	return &b, nil
}

// Submit creates the request for a session and marks it submitted. A
// session that is already submitted returns its recorded submission.
func (m *IntakeManager) Submit(ctx context.Context, id string) (*submission.Result, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	w, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := w.Session()
	ref, _ := m.loader.Load(ctx, sess.UserType)

	res, err := m.submitter.Submit(ctx, sess, ref)
	if err != nil {
		m.publish(id, notify.EventNotice, models.NewNotice(models.NoticeError, "submission",
			"Failed to submit project request. Please try again."))
		return nil, err
	}

	if !sess.IsSubmitted() {
		w.MarkSubmitted(res.Record.ReferenceCode)
		if err := m.sessions.SaveSession(ctx, sess); err != nil {
			// the record exists, so a retry replays it
			slog.Error("failed to save submitted session", "id", id, "error", err)
		}
	}

	m.publish(id, notify.EventSubmitted, res)
	return res, nil
}

// ListSubmissions lists recorded submissions
func (m *IntakeManager) ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	return m.repo.ListSubmissions(ctx, filters)
}

// GetSubmission returns a submission by reference code, nil if unknown
func (m *IntakeManager) GetSubmission(ctx context.Context, referenceCode string) (*models.SubmissionRecord, error) {
	return m.repo.GetSubmissionByReference(ctx, referenceCode)
}

// mutate applies fn under the session lock and saves the session when fn
// reports a change
func (m *IntakeManager) mutate(ctx context.Context, id string, fn func(w *wizard.Wizard) (bool, error)) (*View, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	w, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(w)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := m.sessions.SaveSession(ctx, w.Session()); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	v := m.view(ctx, w)
	if changed {
		m.publish(id, notify.EventSnapshot, v)
		m.publish(id, notify.EventEstimate, v.Estimate)
	}
	return v, nil
}

func (m *IntakeManager) load(ctx context.Context, id string) (*wizard.Wizard, error) {
	sess, err := m.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return wizard.Resume(sess)
}

func (m *IntakeManager) view(ctx context.Context, w *wizard.Wizard) *View {
	sess := w.Session()
	ref, notices := m.loader.Load(ctx, sess.UserType)
	estimate := m.estimator.EstimateSession(sess, ref)

	if notices == nil {
		notices = []models.Notice{}
	}

	v := &View{
		ID:            sess.ID,
		Mode:          sess.Mode,
		UserType:      sess.UserType,
		Status:        sess.Status,
		Step:          w.Step(),
		TotalSteps:    w.TotalSteps(),
		IsLastStep:    w.IsLastStep(),
		Section:       w.Render(ref),
		Template:      sess.Template,
		Estimate:      estimate,
		EstimateLabel: estimate.Label,
		Notices:       notices,
		ReferenceCode: sess.ReferenceCode,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
	if sess.Custom != nil {
		v.Form = sess.Custom
	} else {
		v.Form = sess.Project
	}
	return v
}

func (m *IntakeManager) publish(id, eventType string, data interface{}) {
	if m.events != nil {
		m.events.Publish(id, eventType, data)
	}
}
