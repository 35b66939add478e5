package wizard

import (
	"github.com/pritechvior/project-wizard/internal/models"
)

// An accessor returns a *string, *bool or *[]string into the form, or nil
// when the field belongs to a variant the form does not carry.
type (
	projectAccessor       func(*models.ProjectForm) interface{}
	customizationAccessor func(*models.CustomizationForm) interface{}
)

var projectFields = map[string]projectAccessor{
	"projectTitle":       func(f *models.ProjectForm) interface{} { return &f.ProjectTitle },
	"projectDescription": func(f *models.ProjectForm) interface{} { return &f.ProjectDescription },
	"projectCategory":    func(f *models.ProjectForm) interface{} { return &f.ProjectCategory },
	"selectedTechStack":  func(f *models.ProjectForm) interface{} { return &f.SelectedTechStack },
	"customTechnologies": func(f *models.ProjectForm) interface{} { return &f.CustomTechnologies },
	"databaseRequired":   func(f *models.ProjectForm) interface{} { return &f.DatabaseRequired },
	"databaseType":       func(f *models.ProjectForm) interface{} { return &f.DatabaseType },
	"hostingRequired":    func(f *models.ProjectForm) interface{} { return &f.HostingRequired },
	"coreFeatures":       func(f *models.ProjectForm) interface{} { return &f.CoreFeatures },
	"additionalFeatures": func(f *models.ProjectForm) interface{} { return &f.AdditionalFeatures },
	"userRoles":          func(f *models.ProjectForm) interface{} { return &f.UserRoles },
	"budgetRange":        func(f *models.ProjectForm) interface{} { return &f.BudgetRange },
	"timeline":           func(f *models.ProjectForm) interface{} { return &f.Timeline },
	"priority":           func(f *models.ProjectForm) interface{} { return &f.Priority },
	"selectedServices":   func(f *models.ProjectForm) interface{} { return &f.SelectedServices },
	"hardwareNeeds":      func(f *models.ProjectForm) interface{} { return &f.HardwareNeeds },
	"contactEmail":       func(f *models.ProjectForm) interface{} { return &f.ContactEmail },
	"contactPhone":       func(f *models.ProjectForm) interface{} { return &f.ContactPhone },
	"projectUrgency":     func(f *models.ProjectForm) interface{} { return &f.ProjectUrgency },
	"additionalNotes":    func(f *models.ProjectForm) interface{} { return &f.AdditionalNotes },
	"attachments":        func(f *models.ProjectForm) interface{} { return &f.Attachments },

	"course": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.Course
	},
	"projectType": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.ProjectType
	},
	"isResearchBased": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.IsResearchBased
	},
	"needsAcademicSupport": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.NeedsAcademicSupport
	},
	"academicLevel": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.AcademicLevel
	},
	"institution": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.Institution
	},
	"courseCategory": func(f *models.ProjectForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.CourseCategory
	},
}

var customizationFields = map[string]customizationAccessor{
	"projectTitle":         func(f *models.CustomizationForm) interface{} { return &f.ProjectTitle },
	"customDescription":    func(f *models.CustomizationForm) interface{} { return &f.CustomDescription },
	"keepOriginalFeatures": func(f *models.CustomizationForm) interface{} { return &f.KeepOriginalFeatures },
	"additionalFeatures":   func(f *models.CustomizationForm) interface{} { return &f.AdditionalFeatures },
	"removeFeatures":       func(f *models.CustomizationForm) interface{} { return &f.RemoveFeatures },
	"modifyFeatures":       func(f *models.CustomizationForm) interface{} { return &f.ModifyFeatures },
	"technologyChanges":    func(f *models.CustomizationForm) interface{} { return &f.TechnologyChanges },
	"databaseChanges":      func(f *models.CustomizationForm) interface{} { return &f.DatabaseChanges },
	"hostingPreferences":   func(f *models.CustomizationForm) interface{} { return &f.HostingPreferences },
	"budgetExpectation":    func(f *models.CustomizationForm) interface{} { return &f.BudgetExpectation },
	"timelinePreference":   func(f *models.CustomizationForm) interface{} { return &f.TimelinePreference },
	"priority":             func(f *models.CustomizationForm) interface{} { return &f.Priority },
	"selectedServices":     func(f *models.CustomizationForm) interface{} { return &f.SelectedServices },
	"hardwareNeeds":        func(f *models.CustomizationForm) interface{} { return &f.HardwareNeeds },
	"contactEmail":         func(f *models.CustomizationForm) interface{} { return &f.ContactEmail },
	"contactPhone":         func(f *models.CustomizationForm) interface{} { return &f.ContactPhone },
	"additionalNotes":      func(f *models.CustomizationForm) interface{} { return &f.AdditionalNotes },
	"urgency":              func(f *models.CustomizationForm) interface{} { return &f.Urgency },

	"courseAlignment": func(f *models.CustomizationForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.CourseAlignment
	},
	"projectType": func(f *models.CustomizationForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.ProjectType
	},
	"researchComponents": func(f *models.CustomizationForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.ResearchComponents
	},
	"academicRequirements": func(f *models.CustomizationForm) interface{} {
		if f.Academic == nil {
			return nil
		}
		return &f.Academic.AcademicRequirements
	},
}

// toText converts a decoded JSON value to a text field value
func toText(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case nil:
		return "", true
	}
	return "", false
}

// toBool converts a decoded JSON value to a bool field value
func toBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch t {
		case "true", "on", "1":
			return true, true
		case "false", "off", "0", "":
			return false, true
		}
	}
	return false, false
}

// toList converts a decoded JSON value to a list field value
func toList(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return []string{}, true
	case []string:
		return append([]string{}, t...), true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
