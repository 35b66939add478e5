package submission

import (
	"strings"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Request types
const (
	RequestNew      = "new"
	RequestTemplate = "template"
)

// Payload is the body of a create-request call
type Payload struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	UserType            string   `json:"user_type"`
	RequestType         string   `json:"request_type"`
	Category            string   `json:"category,omitempty"`
	Requirements        string   `json:"requirements"`
	AdditionalFeatures  string   `json:"additional_features"`
	BudgetRange         string   `json:"budget_range"`
	Timeline            string   `json:"timeline"`
	PreferredDeadline   *string  `json:"preferred_deadline"`
	TimelineFlexibility string   `json:"timeline_flexibility"`
	Priority            string   `json:"priority"`
	ContactPhone        string   `json:"contact_phone"`
	ContactEmail        string   `json:"contact_email"`
	TechnologyNotes     string   `json:"technology_notes"`
	ServicePackages     []string `json:"service_packages,omitempty"`
	HardwareNeeds       []string `json:"hardware_needs,omitempty"`
	PreferredTechs      []string `json:"preferred_technologies,omitempty"`
	FeaturesRequired    []string `json:"features_required,omitempty"`
	EstimatedCost       float64  `json:"estimated_cost"`

	// Students only
	AcademicLevel        string `json:"academic_level,omitempty"`
	Institution          string `json:"institution,omitempty"`
	CourseCategory       string `json:"course_category,omitempty"`
	Course               string `json:"course,omitempty"`
	ProjectType          string `json:"project_type,omitempty"`
	IsResearchBased      bool   `json:"is_research_based,omitempty"`
	NeedsAcademicSupport bool   `json:"needs_academic_support,omitempty"`

	// Customization only
	Template       string          `json:"template,omitempty"`
	Customizations *Customizations `json:"customizations,omitempty"`
}

// Customizations lists how a template should be changed
type Customizations struct {
	KeepOriginalFeatures bool     `json:"keep_original_features"`
	RemoveFeatures       []string `json:"remove_features,omitempty"`
	ModifyFeatures       []string `json:"modify_features,omitempty"`
	TechnologyChanges    []string `json:"technology_changes,omitempty"`
	DatabaseChanges      string   `json:"database_changes,omitempty"`
	HostingPreferences   string   `json:"hosting_preferences,omitempty"`
	CourseAlignment      string   `json:"course_alignment,omitempty"`
	ProjectType          string   `json:"project_type,omitempty"`
	ResearchComponents   []string `json:"research_components,omitempty"`
	AcademicRequirements string   `json:"academic_requirements,omitempty"`
}

// BuildPayload converts a session into a create-request body. All free
// text is stripped of markup.
func BuildPayload(s *models.Session, estimatedCost float64) *Payload {
	if s.Mode == models.ModeCustomization {
		return customizationPayload(s, estimatedCost)
	}
	return projectPayload(s, estimatedCost)
}

func projectPayload(s *models.Session, cost float64) *Payload {
	f := s.Project
	if f == nil {
		f = models.NewProjectForm(s.UserType)
	}

	techs := f.CustomTechnologies
	if f.SelectedTechStack != "" {
		techs = append([]string{f.SelectedTechStack}, techs...)
	}

	p := &Payload{
		Title:               sanitizeText(f.ProjectTitle),
		Description:         sanitizeText(f.ProjectDescription),
		UserType:            string(s.UserType),
		RequestType:         RequestNew,
		Category:            sanitizeText(f.ProjectCategory),
		Requirements:        sanitizeText(f.AdditionalNotes),
		AdditionalFeatures:  strings.Join(sanitizeList(f.AdditionalFeatures), ", "),
		BudgetRange:         sanitizeText(f.BudgetRange),
		Timeline:            sanitizeText(f.Timeline),
		TimelineFlexibility: flexibility(f.ProjectUrgency),
		Priority:            priorityOrDefault(f.Priority),
		ContactPhone:        sanitizeText(f.ContactPhone),
		ContactEmail:        sanitizeText(f.ContactEmail),
		TechnologyNotes:     technologyNotes(f),
		ServicePackages:     f.SelectedServices,
		HardwareNeeds:       f.HardwareNeeds,
		PreferredTechs:      sanitizeList(techs),
		FeaturesRequired:    sanitizeList(f.CoreFeatures),
		EstimatedCost:       cost,
	}

	if s.UserType == models.UserStudent && f.Academic != nil {
		a := f.Academic
		p.AcademicLevel = sanitizeText(a.AcademicLevel)
		p.Institution = sanitizeText(a.Institution)
		p.CourseCategory = sanitizeText(a.CourseCategory)
		p.Course = sanitizeText(a.Course)
		p.ProjectType = sanitizeText(a.ProjectType)
		p.IsResearchBased = a.IsResearchBased
		p.NeedsAcademicSupport = a.NeedsAcademicSupport
	}

	return p
}

func customizationPayload(s *models.Session, cost float64) *Payload {
	f := s.Custom
	if f == nil {
		f = models.NewCustomizationForm(s.UserType, s.Template)
	}

	p := &Payload{
		Title:               sanitizeText(f.ProjectTitle),
		Description:         sanitizeText(f.CustomDescription),
		UserType:            string(s.UserType),
		RequestType:         RequestTemplate,
		Requirements:        sanitizeText(f.AdditionalNotes),
		AdditionalFeatures:  strings.Join(sanitizeList(f.AdditionalFeatures), ", "),
		BudgetRange:         sanitizeText(f.BudgetExpectation),
		Timeline:            sanitizeText(f.TimelinePreference),
		TimelineFlexibility: flexibility(f.Urgency),
		Priority:            priorityOrDefault(f.Priority),
		ContactPhone:        sanitizeText(f.ContactPhone),
		ContactEmail:        sanitizeText(f.ContactEmail),
		ServicePackages:     f.SelectedServices,
		HardwareNeeds:       f.HardwareNeeds,
		FeaturesRequired:    sanitizeList(f.AdditionalFeatures),
		EstimatedCost:       cost,
		Customizations: &Customizations{
			KeepOriginalFeatures: f.KeepOriginalFeatures,
			RemoveFeatures:       sanitizeList(f.RemoveFeatures),
			ModifyFeatures:       sanitizeList(f.ModifyFeatures),
			TechnologyChanges:    sanitizeList(f.TechnologyChanges),
			DatabaseChanges:      sanitizeText(f.DatabaseChanges),
			HostingPreferences:   sanitizeText(f.HostingPreferences),
		},
	}

	if s.Template != nil {
		p.Template = string(s.Template.ID)
		p.Category = sanitizeText(s.Template.Category)
		if p.Title == "" {
			p.Title = s.Template.Title
		}
	}

	if s.UserType == models.UserStudent && f.Academic != nil {
		a := f.Academic
		p.Customizations.CourseAlignment = sanitizeText(a.CourseAlignment)
		p.Customizations.ProjectType = sanitizeText(a.ProjectType)
		p.Customizations.ResearchComponents = sanitizeList(a.ResearchComponents)
		p.Customizations.AcademicRequirements = sanitizeText(a.AcademicRequirements)
	}

	return p
}

func technologyNotes(f *models.ProjectForm) string {
	var notes []string
	if f.DatabaseRequired {
		db := sanitizeText(f.DatabaseType)
		if db == "" {
			db = "any"
		}
		notes = append(notes, "database: "+db)
	}
	if f.HostingRequired {
		notes = append(notes, "hosting required")
	}
	if len(f.UserRoles) > 0 {
		notes = append(notes, "roles: "+strings.Join(sanitizeList(f.UserRoles), ", "))
	}
	return strings.Join(notes, "; ")
}

func flexibility(urgency string) string {
	if urgency == "urgent" || urgency == "asap" {
		return "strict"
	}
	return "flexible"
}

func priorityOrDefault(p string) string {
	if p == "" {
		return models.PriorityStandard
	}
	return p
}
