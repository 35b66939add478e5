package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Common errors
var (
	ErrInvalidUserType    = errors.New("invalid user type")
	ErrInvalidMode        = errors.New("invalid wizard mode")
	ErrTemplateRequired   = errors.New("customization requires a base template")
	ErrUnknownField       = errors.New("unknown field")
	ErrFieldKind          = errors.New("wrong value kind for field")
	ErrFieldNotApplicable = errors.New("field not applicable to this user type")
	ErrSessionSubmitted   = errors.New("wizard already submitted")
)

// Wizard is the state container for one session. It is not safe for
// concurrent use; callers serialise access per session.
type Wizard struct {
	session *models.Session
	flow    Flow
	now     func() time.Time
}

// New starts a wizard. base is required for ModeCustomization and ignored otherwise.
func New(mode models.Mode, ut models.UserType, base *models.ProjectTemplate) (*Wizard, error) {
	flow, err := FlowFor(mode, ut)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &models.Session{
		ID:             uuid.New().String(),
		Mode:           mode,
		UserType:       ut,
		Step:           1,
		Status:         models.SessionOpen,
		IdempotencyKey: uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	switch mode {
	case models.ModeNew:
		s.Project = models.NewProjectForm(ut)
	case models.ModeCustomization:
		if base == nil {
			return nil, ErrTemplateRequired
		}
		tmpl := *base
		s.Template = &tmpl
		s.Custom = models.NewCustomizationForm(ut, &tmpl)
	}

	return &Wizard{session: s, flow: flow, now: time.Now}, nil
}

// Resume wraps a stored session
func Resume(s *models.Session) (*Wizard, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	flow, err := FlowFor(s.Mode, s.UserType)
	if err != nil {
		return nil, err
	}
	if s.Mode == models.ModeNew && s.Project == nil {
		s.Project = models.NewProjectForm(s.UserType)
	}
	if s.Mode == models.ModeCustomization && s.Custom == nil {
		s.Custom = models.NewCustomizationForm(s.UserType, s.Template)
	}
	s.Step = flow.clamp(s.Step)
	return &Wizard{session: s, flow: flow, now: time.Now}, nil
}

// Session returns the underlying session
func (w *Wizard) Session() *models.Session {
	return w.session
}

// Flow returns the step table in use
func (w *Wizard) Flow() Flow {
	return w.flow
}

// Step returns the current step (1-based)
func (w *Wizard) Step() int {
	return w.session.Step
}

// TotalSteps returns the number of steps for this session
func (w *Wizard) TotalSteps() int {
	return w.flow.TotalSteps()
}

// Current returns the section rendered at the current step
func (w *Wizard) Current() Section {
	return w.flow.Section(w.session.Step)
}

// IsLastStep reports whether the wizard is on its final step
func (w *Wizard) IsLastStep() bool {
	return w.session.Step == w.flow.TotalSteps()
}

// Next advances one step. It is a no-op on the last step and once the
// session is submitted.
func (w *Wizard) Next() bool {
	return w.Move(EventNext)
}

// Prev goes back one step. It is a no-op on step 1 and once the session is
// submitted.
func (w *Wizard) Prev() bool {
	return w.Move(EventPrev)
}

// Move applies a navigation event and reports whether the step changed
func (w *Wizard) Move(ev Event) bool {
	if w.session.IsSubmitted() {
		return false
	}
	next := w.flow.Transition(w.session.Step, ev)
	if next == w.session.Step {
		return false
	}
	w.session.Step = next
	w.touch()
	return true
}

// UpdateField sets a field to value
func (w *Wizard) UpdateField(name string, value interface{}) error {
	if w.session.IsSubmitted() {
		return ErrSessionSubmitted
	}
	target, err := w.target(name)
	if err != nil {
		return err
	}

	switch p := target.(type) {
	case *string:
		s, ok := toText(value)
		if !ok {
			return fmt.Errorf("%w: %s expects %s", ErrFieldKind, name, KindText)
		}
		*p = s
	case *bool:
		b, ok := toBool(value)
		if !ok {
			return fmt.Errorf("%w: %s expects %s", ErrFieldKind, name, KindBool)
		}
		*p = b
	case *[]string:
		l, ok := toList(value)
		if !ok {
			return fmt.Errorf("%w: %s expects %s", ErrFieldKind, name, KindList)
		}
		*p = l
	}

	w.touch()
	return nil
}

// ToggleArrayField adds value to a list field if absent, removes it if present
func (w *Wizard) ToggleArrayField(name, value string) error {
	if w.session.IsSubmitted() {
		return ErrSessionSubmitted
	}
	target, err := w.target(name)
	if err != nil {
		return err
	}
	p, ok := target.(*[]string)
	if !ok {
		return fmt.Errorf("%w: %s is not a %s field", ErrFieldKind, name, KindList)
	}

	*p = toggle(*p, value)
	w.touch()
	return nil
}

// Value returns the current value of a field
func (w *Wizard) Value(name string) (interface{}, error) {
	target, err := w.target(name)
	if err != nil {
		return nil, err
	}
	switch p := target.(type) {
	case *string:
		return *p, nil
	case *bool:
		return *p, nil
	case *[]string:
		return append([]string{}, (*p)...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// MarkSubmitted freezes the session under a reference code
func (w *Wizard) MarkSubmitted(referenceCode string) {
	w.session.Status = models.SessionSubmitted
	w.session.ReferenceCode = referenceCode
	w.touch()
}

func (w *Wizard) target(name string) (interface{}, error) {
	var target interface{}
	switch w.session.Mode {
	case models.ModeNew:
		acc, ok := projectFields[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		target = acc(w.session.Project)
	case models.ModeCustomization:
		acc, ok := customizationFields[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		target = acc(w.session.Custom)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrFieldNotApplicable, name, w.session.UserType)
	}
	return target, nil
}

func (w *Wizard) touch() {
	w.session.UpdatedAt = w.now().UTC()
}

func toggle(items []string, value string) []string {
	for i, item := range items {
		if item == value {
			out := make([]string, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...)
		}
	}
	return append(append([]string{}, items...), value)
}
