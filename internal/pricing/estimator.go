package pricing

import (
	"math"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Breakdown is an itemised estimate. Total is what the wizard displays.
type Breakdown struct {
	BaseCost           float64 `json:"base_cost"`
	ServiceCost        float64 `json:"service_cost"`
	HardwareCost       float64 `json:"hardware_cost"`
	FeatureCost        float64 `json:"feature_cost,omitempty"`
	TechnologyCost     float64 `json:"technology_cost,omitempty"`
	UserMultiplier     float64 `json:"user_multiplier"`
	PriorityMultiplier float64 `json:"priority_multiplier"`
	Total              float64 `json:"total"`
	Label              string  `json:"label"`
}

// Estimator computes costs from a fixed set of price tables
type Estimator struct {
	tables *Tables
}

// NewEstimator creates an estimator; nil tables means the embedded defaults
func NewEstimator(tables *Tables) *Estimator {
	if tables == nil {
		tables = Default()
	}
	return &Estimator{tables: tables}
}

// Tables returns the tables the estimator reads
func (e *Estimator) Tables() *Tables {
	return e.tables
}

// Estimate prices a new-project form:
// (category base + selected packages + hardware) × user-type multiplier.
func (e *Estimator) Estimate(form *models.ProjectForm, ref *models.ReferenceData, ut models.UserType) Breakdown {
	b := Breakdown{PriorityMultiplier: 1}
	if form == nil {
		form = &models.ProjectForm{}
	}

	b.BaseCost = e.tables.BaseCost(form.ProjectCategory)
	b.ServiceCost = e.serviceCost(form.SelectedServices, ref)
	b.HardwareCost = e.hardwareCost(form.HardwareNeeds)
	b.UserMultiplier = e.tables.UserMultiplier(ut)

	b.Total = (b.BaseCost + b.ServiceCost + b.HardwareCost) * b.UserMultiplier
	b.Label = FormatTSH(b.Total)
	return b
}

// EstimateCustomization prices a customization of base:
// (template price + 20% of it per added feature + technology changes +
// packages + hardware) × user-type multiplier × priority multiplier.
func (e *Estimator) EstimateCustomization(form *models.CustomizationForm, base *models.ProjectTemplate, ref *models.ReferenceData, ut models.UserType) Breakdown {
	b := Breakdown{}
	if form == nil {
		form = &models.CustomizationForm{}
	}

	c := e.tables.Customization
	b.BaseCost = c.TemplateFallback
	if base != nil && priced(float64(base.EstimatedPrice)) {
		b.BaseCost = float64(base.EstimatedPrice)
	}

	b.FeatureCost = float64(len(form.AdditionalFeatures)) * b.BaseCost * c.FeatureSurcharge
	b.TechnologyCost = float64(len(form.TechnologyChanges)) * c.TechnologyChange
	b.ServiceCost = e.serviceCost(form.SelectedServices, ref)
	b.HardwareCost = e.hardwareCost(form.HardwareNeeds)
	b.UserMultiplier = e.tables.UserMultiplier(ut)
	b.PriorityMultiplier = e.tables.PriorityMultiplier(form.Priority)

	sum := b.BaseCost + b.FeatureCost + b.TechnologyCost + b.ServiceCost + b.HardwareCost
	b.Total = sum * b.UserMultiplier * b.PriorityMultiplier
	b.Label = FormatTSH(b.Total)
	return b
}

// EstimateSession dispatches on the session mode
func (e *Estimator) EstimateSession(s *models.Session, ref *models.ReferenceData) Breakdown {
	if s.Mode == models.ModeCustomization {
		return e.EstimateCustomization(s.Custom, s.Template, ref, s.UserType)
	}
	return e.Estimate(s.Project, ref, s.UserType)
}

func (e *Estimator) serviceCost(ids []string, ref *models.ReferenceData) float64 {
	var total float64
	for _, id := range ids {
		if p, ok := ref.ServicePackage(id); ok && priced(float64(p.Price)) {
			total += float64(p.Price)
		}
	}
	return total
}

func (e *Estimator) hardwareCost(ids []string) float64 {
	var total float64
	for _, id := range ids {
		total += e.tables.HardwarePrice(id)
	}
	return total
}

// priced reports whether v is a usable positive price
func priced(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
