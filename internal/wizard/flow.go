package wizard

import (
	"fmt"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Event is a navigation input
type Event int

const (
	EventNext Event = iota
	EventPrev
)

func (e Event) String() string {
	if e == EventPrev {
		return "prev"
	}
	return "next"
}

// Flow is the ordered list of sections for one (mode, user type) pair
type Flow struct {
	Mode     models.Mode
	UserType models.UserType
	Sections []Section
}

type flowKey struct {
	mode    models.Mode
	student bool
}

// Students get the extra academic step; other user types share a flow.
var flows = map[flowKey][]Section{
	{models.ModeNew, true}: {
		basicSection, academicSection, technicalSection, featuresSection,
		budgetSection, servicesSection, contactSection, reviewSection,
	},
	{models.ModeNew, false}: {
		basicSection, technicalSection, featuresSection,
		budgetSection, servicesSection, contactSection, reviewSection,
	},
	{models.ModeCustomization, true}: {
		studentOverviewSection, customFeaturesSection, customTechSection, customBudgetSection,
	},
	{models.ModeCustomization, false}: {
		overviewSection, customFeaturesSection, customTechSection, customBudgetSection,
	},
}

// FlowFor returns the flow for a mode and user type
func FlowFor(mode models.Mode, ut models.UserType) (Flow, error) {
	if !ut.Valid() {
		return Flow{}, fmt.Errorf("%w: %q", ErrInvalidUserType, ut)
	}
	sections, ok := flows[flowKey{mode: mode, student: ut == models.UserStudent}]
	if !ok {
		return Flow{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	return Flow{Mode: mode, UserType: ut, Sections: sections}, nil
}

// TotalSteps returns the number of steps in the flow
func (f Flow) TotalSteps() int {
	return len(f.Sections)
}

// Transition returns the step reached from step on ev.
// Moves past either end are no-ops; out-of-range input is clamped first.
func (f Flow) Transition(step int, ev Event) int {
	step = f.clamp(step)
	switch ev {
	case EventNext:
		if step < f.TotalSteps() {
			return step + 1
		}
	case EventPrev:
		if step > 1 {
			return step - 1
		}
	}
	return step
}

// Section returns the descriptor rendered at step
func (f Flow) Section(step int) Section {
	return f.Sections[f.clamp(step)-1]
}

func (f Flow) clamp(step int) int {
	if step < 1 {
		return 1
	}
	if n := f.TotalSteps(); step > n {
		return n
	}
	return step
}
