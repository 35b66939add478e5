package pricing

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pritechvior/project-wizard/internal/models"
)

//go:embed pricing.yaml
var defaultTables []byte

// Tables holds every constant the estimator reads
type Tables struct {
	CategoryFallback    float64               `yaml:"category_fallback"`
	Categories          map[string]float64    `yaml:"categories"`
	UserMultipliers     map[string]float64    `yaml:"user_multipliers"`
	PriorityMultipliers map[string]float64    `yaml:"priority_multipliers"`
	Customization       CustomizationTables   `yaml:"customization"`
	Hardware            []models.HardwareItem `yaml:"hardware"`
}

// CustomizationTables holds the customization-variant constants
type CustomizationTables struct {
	TemplateFallback float64 `yaml:"template_fallback"`
	FeatureSurcharge float64 `yaml:"feature_surcharge"`
	TechnologyChange float64 `yaml:"technology_change"`
}

// Default returns the embedded price tables
func Default() *Tables {
	t, err := Parse(defaultTables)
	if err != nil {
		// embedded file is part of the build
		panic(fmt.Sprintf("invalid embedded pricing tables: %v", err))
	}
	return t
}

// Parse decodes YAML price tables
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse pricing YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads price tables from path, overlaying them on the defaults.
// Keys absent from the file keep their default values.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	base := Default()
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse pricing YAML: %w", err)
	}
	base.merge(&override)

	if err := base.Validate(); err != nil {
		return nil, err
	}

	slog.Info("pricing tables loaded", "file", path,
		"categories", len(base.Categories), "hardware", len(base.Hardware))
	return base, nil
}

// Validate rejects negative or non-finite prices and multipliers
func (t *Tables) Validate() error {
	if invalid(t.CategoryFallback) {
		return fmt.Errorf("category_fallback must not be negative")
	}
	for name, v := range t.Categories {
		if invalid(v) {
			return fmt.Errorf("category %q has negative cost", name)
		}
	}
	for name, v := range t.UserMultipliers {
		if invalid(v) {
			return fmt.Errorf("user multiplier %q is negative", name)
		}
	}
	for name, v := range t.PriorityMultipliers {
		if invalid(v) {
			return fmt.Errorf("priority multiplier %q is negative", name)
		}
	}
	for _, h := range t.Hardware {
		if h.ID == "" {
			return fmt.Errorf("hardware item without id")
		}
		if invalid(h.Price) {
			return fmt.Errorf("hardware %q has negative price", h.ID)
		}
	}
	c := t.Customization
	if invalid(c.TemplateFallback) || invalid(c.FeatureSurcharge) || invalid(c.TechnologyChange) {
		return fmt.Errorf("customization constants must not be negative")
	}
	return nil
}

func invalid(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

// BaseCost returns the flat cost of a category, or the fallback
func (t *Tables) BaseCost(category string) float64 {
	if v, ok := t.Categories[category]; ok {
		return v
	}
	return t.CategoryFallback
}

// UserMultiplier returns the multiplier for a user type (1.0 if unmapped)
func (t *Tables) UserMultiplier(ut models.UserType) float64 {
	if v, ok := t.UserMultipliers[string(ut)]; ok {
		return v
	}
	return 1
}

// PriorityMultiplier returns the multiplier for a priority (1.0 if unmapped)
func (t *Tables) PriorityMultiplier(priority string) float64 {
	if v, ok := t.PriorityMultipliers[priority]; ok {
		return v
	}
	return 1
}

// HardwarePrice returns the price of a hardware id (0 if unmapped)
func (t *Tables) HardwarePrice(id string) float64 {
	for _, h := range t.Hardware {
		if h.ID == id {
			return h.Price
		}
	}
	return 0
}

func (t *Tables) merge(o *Tables) {
	if o.CategoryFallback != 0 {
		t.CategoryFallback = o.CategoryFallback
	}
	for k, v := range o.Categories {
		t.Categories[k] = v
	}
	for k, v := range o.UserMultipliers {
		t.UserMultipliers[k] = v
	}
	for k, v := range o.PriorityMultipliers {
		t.PriorityMultipliers[k] = v
	}
	if o.Customization.TemplateFallback != 0 {
		t.Customization.TemplateFallback = o.Customization.TemplateFallback
	}
	if o.Customization.FeatureSurcharge != 0 {
		t.Customization.FeatureSurcharge = o.Customization.FeatureSurcharge
	}
	if o.Customization.TechnologyChange != 0 {
		t.Customization.TechnologyChange = o.Customization.TechnologyChange
	}
	if len(o.Hardware) > 0 {
		t.Hardware = o.Hardware
	}
}
