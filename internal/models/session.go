package models

import (
	"fmt"
	"strings"
	"time"
)

// UserType is the wizard discriminant
type UserType string

const (
	UserStudent  UserType = "student"
	UserClient   UserType = "client"
	UserBusiness UserType = "business"
)

// ParseUserType normalizes and validates a user type
func ParseUserType(s string) (UserType, error) {
	ut := UserType(strings.ToLower(strings.TrimSpace(s)))
	if !ut.Valid() {
		return "", fmt.Errorf("unknown user type %q", s)
	}
	return ut, nil
}

// Valid reports whether the user type is one of the known values
func (u UserType) Valid() bool {
	return u == UserStudent || u == UserClient || u == UserBusiness
}

// Mode selects which wizard a session runs
type Mode string

const (
	ModeNew           Mode = "new"
	ModeCustomization Mode = "customization"
)

// ParseMode validates a mode; empty defaults to ModeNew
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeNew, nil
	case ModeNew, ModeCustomization:
		return m, nil
	default:
		return "", fmt.Errorf("unknown wizard mode %q", s)
	}
}

// Priority levels used by the customization estimate
const (
	PriorityStandard = "standard"
	PriorityHigh     = "high"
	PriorityUrgent   = "urgent"
)

// SessionStatus represents the lifecycle of a wizard session
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"      // Accepting input
	SessionSubmitted SessionStatus = "submitted" // Request created, read-only
)

// AcademicDetails holds the student-only fields of the new-project wizard
type AcademicDetails struct {
	Course               string `json:"course"`
	ProjectType          string `json:"projectType"`
	IsResearchBased      bool   `json:"isResearchBased"`
	NeedsAcademicSupport bool   `json:"needsAcademicSupport"`
	AcademicLevel        string `json:"academicLevel"`
	Institution          string `json:"institution"`
	CourseCategory       string `json:"courseCategory"`
}

// ProjectForm is the form state of the new-project wizard
type ProjectForm struct {
	ProjectTitle       string   `json:"projectTitle"`
	ProjectDescription string   `json:"projectDescription"`
	ProjectCategory    string   `json:"projectCategory"`
	SelectedTechStack  string   `json:"selectedTechStack"`
	CustomTechnologies []string `json:"customTechnologies"`
	DatabaseRequired   bool     `json:"databaseRequired"`
	DatabaseType       string   `json:"databaseType"`
	HostingRequired    bool     `json:"hostingRequired"`
	CoreFeatures       []string `json:"coreFeatures"`
	AdditionalFeatures []string `json:"additionalFeatures"`
	UserRoles          []string `json:"userRoles"`
	BudgetRange        string   `json:"budgetRange"`
	Timeline           string   `json:"timeline"`
	Priority           string   `json:"priority"`
	SelectedServices   []string `json:"selectedServices"`
	HardwareNeeds      []string `json:"hardwareNeeds"`
	ContactEmail       string   `json:"contactEmail"`
	ContactPhone       string   `json:"contactPhone"`
	ProjectUrgency     string   `json:"projectUrgency"`
	AdditionalNotes    string   `json:"additionalNotes"`
	Attachments        []string `json:"attachments"`

	// Academic is only set for students
	Academic *AcademicDetails `json:"academic,omitempty"`
}

// NewProjectForm returns an empty form with the wizard defaults applied
func NewProjectForm(ut UserType) *ProjectForm {
	f := &ProjectForm{
		Priority:       PriorityStandard,
		ProjectUrgency: "normal",
	}
	if ut == UserStudent {
		f.Academic = &AcademicDetails{}
	}
	return f
}

// AcademicAlignment holds the student-only fields of the customization wizard
type AcademicAlignment struct {
	CourseAlignment      string   `json:"courseAlignment"`
	ProjectType          string   `json:"projectType"`
	ResearchComponents   []string `json:"researchComponents"`
	AcademicRequirements string   `json:"academicRequirements"`
}

// CustomizationForm is the form state of the customization wizard
type CustomizationForm struct {
	ProjectTitle         string   `json:"projectTitle"`
	CustomDescription    string   `json:"customDescription"`
	KeepOriginalFeatures bool     `json:"keepOriginalFeatures"`
	AdditionalFeatures   []string `json:"additionalFeatures"`
	RemoveFeatures       []string `json:"removeFeatures"`
	ModifyFeatures       []string `json:"modifyFeatures"`
	TechnologyChanges    []string `json:"technologyChanges"`
	DatabaseChanges      string   `json:"databaseChanges"`
	HostingPreferences   string   `json:"hostingPreferences"`
	BudgetExpectation    string   `json:"budgetExpectation"`
	TimelinePreference   string   `json:"timelinePreference"`
	Priority             string   `json:"priority"`
	SelectedServices     []string `json:"selectedServices"`
	HardwareNeeds        []string `json:"hardwareNeeds"`
	ContactEmail         string   `json:"contactEmail"`
	ContactPhone         string   `json:"contactPhone"`
	AdditionalNotes      string   `json:"additionalNotes"`
	Urgency              string   `json:"urgency"`

	// Academic is only set for students
	Academic *AcademicAlignment `json:"academic,omitempty"`
}

// NewCustomizationForm returns a form seeded from the base template
func NewCustomizationForm(ut UserType, base *ProjectTemplate) *CustomizationForm {
	f := &CustomizationForm{
		KeepOriginalFeatures: true,
		Priority:             PriorityStandard,
		Urgency:              "normal",
	}
	if base != nil {
		f.ProjectTitle = base.Title
	}
	if ut == UserStudent {
		f.Academic = &AcademicAlignment{}
	}
	return f
}

// Session is a server-side wizard session.
// Exactly one of Project or Custom is set, according to Mode.
type Session struct {
	ID             string             `json:"id"`
	Mode           Mode               `json:"mode"`
	UserType       UserType           `json:"user_type"`
	Step           int                `json:"step"`
	Status         SessionStatus      `json:"status"`
	Project        *ProjectForm       `json:"project,omitempty"`
	Custom         *CustomizationForm `json:"customization,omitempty"`
	Template       *ProjectTemplate   `json:"template,omitempty"`
	IdempotencyKey string             `json:"idempotency_key"`
	ReferenceCode  string             `json:"reference_code,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// IsSubmitted returns true once the request has been created
func (s *Session) IsSubmitted() bool {
	return s.Status == SessionSubmitted
}

// Priority returns the priority of whichever form the session carries
func (s *Session) Priority() string {
	switch {
	case s.Custom != nil:
		return s.Custom.Priority
	case s.Project != nil:
		return s.Project.Priority
	}
	return PriorityStandard
}

// CreateWizardRequest represents a request to start a wizard
type CreateWizardRequest struct {
	Mode       string `json:"mode"`
	UserType   string `json:"user_type"`
	TemplateID string `json:"template_id,omitempty"`
}

// FieldValueRequest carries a field value for update and toggle calls
type FieldValueRequest struct {
	Value interface{} `json:"value"`
}
