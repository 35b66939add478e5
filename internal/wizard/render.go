package wizard

import (
	"github.com/pritechvior/project-wizard/internal/models"
)

// Option is one selectable choice of a field
type Option struct {
	Value       string  `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// FieldView is a field with its resolved options and current value
type FieldView struct {
	Field
	Value   interface{} `json:"value"`
	Choices []Option    `json:"choices,omitempty"`
}

// SectionView is what a client renders for the current step
type SectionView struct {
	ID          SectionID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldView `json:"fields"`
}

var priorityOptions = []Option{
	{Value: models.PriorityStandard, Label: "Standard", Description: "Regular delivery timeline"},
	{Value: models.PriorityHigh, Label: "High Priority", Description: "Faster delivery, higher cost"},
	{Value: models.PriorityUrgent, Label: "Urgent", Description: "Fastest possible delivery"},
}

// Render resolves the current section against reference data. Missing
// reference arrays render as empty choice lists.
func (w *Wizard) Render(ref *models.ReferenceData) SectionView {
	sec := w.Current()
	view := SectionView{
		ID:          sec.ID,
		Title:       sec.Title,
		Description: sec.Description,
		Fields:      make([]FieldView, 0, len(sec.Fields)),
	}
	for _, f := range sec.Fields {
		fv := FieldView{Field: f}
		if v, err := w.Value(f.Name); err == nil {
			fv.Value = v
		}
		fv.Choices = w.choices(f.Options, ref)
		view.Fields = append(view.Fields, fv)
	}
	return view
}

func (w *Wizard) choices(src OptionSource, ref *models.ReferenceData) []Option {
	if src == OptionPriorities {
		return priorityOptions
	}
	if src == OptionTemplateFeatures {
		if w.session.Template == nil {
			return nil
		}
		out := make([]Option, 0, len(w.session.Template.Features))
		for _, feat := range w.session.Template.Features {
			out = append(out, Option{Value: feat, Label: feat})
		}
		return out
	}
	if ref == nil {
		return nil
	}

	var out []Option
	switch src {
	case OptionCategories:
		for _, c := range ref.Categories {
			out = append(out, Option{Value: c.Name, Label: c.Name, Description: c.Description})
		}
	case OptionTechnologies:
		for _, t := range ref.Technologies {
			out = append(out, Option{Value: string(t.ID), Label: t.Name, Description: t.Description})
		}
	case OptionServicePackages:
		for _, p := range ref.ServicePackages {
			out = append(out, Option{Value: string(p.ID), Label: p.Name, Description: p.Description, Price: float64(p.Price)})
		}
	case OptionCourseCategories:
		for _, c := range ref.CourseCategories {
			out = append(out, Option{Value: c.Name, Label: c.Name, Description: c.Description})
		}
	case OptionHardware:
		for _, h := range ref.Hardware {
			out = append(out, Option{Value: h.ID, Label: h.Name, Description: h.Description, Price: h.Price})
		}
	}
	return out
}
