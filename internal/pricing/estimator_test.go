package pricing

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pritechvior/project-wizard/internal/models"
)

func referenceData() *models.ReferenceData {
	return &models.ReferenceData{
		ServicePackages: []models.ServicePackage{
			{ID: "1", Name: "Documentation", Price: 300000},
			{ID: "2", Name: "Deployment", Price: 250000},
			{ID: "free", Name: "Consultation", Price: 0},
		},
	}
}

func TestWebDevelopmentStudentScenario(t *testing.T) {
	e := NewEstimator(nil)
	form := &models.ProjectForm{ProjectCategory: "Web Development"}

	b := e.Estimate(form, nil, models.UserStudent)

	assert.Equal(t, 1500000.0, b.BaseCost)
	assert.Equal(t, 0.75, b.UserMultiplier)
	assert.Equal(t, 1125000.0, b.Total)
	assert.Equal(t, "TSH 1,125,000", b.Label)
}

func TestUnmappedCategoryUsesFallback(t *testing.T) {
	e := NewEstimator(nil)

	b := e.Estimate(&models.ProjectForm{ProjectCategory: "Quantum Widgets"}, nil, models.UserClient)
	assert.Equal(t, 2000000.0, b.Total)

	b = e.Estimate(nil, nil, models.UserClient)
	assert.Equal(t, 2000000.0, b.Total)
}

func TestServicesAndHardwareAreAdded(t *testing.T) {
	e := NewEstimator(nil)
	form := &models.ProjectForm{
		ProjectCategory:  "UI/UX Design",
		SelectedServices: []string{"1", "2", "missing"},
		HardwareNeeds:    []string{"arduino-kit", "unknown-board"},
	}

	b := e.Estimate(form, referenceData(), models.UserBusiness)

	assert.Equal(t, 800000.0, b.BaseCost)
	assert.Equal(t, 550000.0, b.ServiceCost)
	assert.Equal(t, 150000.0, b.HardwareCost)
	assert.InDelta(t, (800000.0+550000+150000)*1.3, b.Total, 0.001)
}

func TestEstimateIsMonotonic(t *testing.T) {
	e := NewEstimator(nil)
	ref := referenceData()
	form := &models.ProjectForm{ProjectCategory: "E-Commerce"}

	for _, ut := range []models.UserType{models.UserStudent, models.UserClient, models.UserBusiness} {
		prev := e.Estimate(form, ref, ut).Total
		for _, id := range []string{"1", "2", "free"} {
			f := *form
			f.SelectedServices = append(append([]string{}, form.SelectedServices...), id)
			next := e.Estimate(&f, ref, ut).Total
			assert.GreaterOrEqual(t, next, prev)
		}
		for _, id := range []string{"raspberry-pi", "iot-sensors"} {
			f := *form
			f.HardwareNeeds = []string{id}
			assert.Greater(t, e.Estimate(&f, ref, ut).Total, prev)
		}
	}
}

func TestStudentIsDiscountedClientPrice(t *testing.T) {
	e := NewEstimator(nil)
	ref := referenceData()
	forms := []*models.ProjectForm{
		{ProjectCategory: "Mobile Development"},
		{ProjectCategory: "E-Learning", SelectedServices: []string{"1"}, HardwareNeeds: []string{"server-hosting"}},
		{ProjectCategory: "", HardwareNeeds: []string{"networking-kit", "arduino-kit"}},
	}
	for _, f := range forms {
		student := e.Estimate(f, ref, models.UserStudent).Total
		client := e.Estimate(f, ref, models.UserClient).Total
		assert.InDelta(t, client*0.75, student, 0.5)
	}
}

func TestCustomizationEstimate(t *testing.T) {
	e := NewEstimator(nil)
	base := &models.ProjectTemplate{ID: "9", Title: "Clinic System", EstimatedPrice: 1000000}
	form := &models.CustomizationForm{
		AdditionalFeatures: []string{"SMS reminders", "Billing"},
		TechnologyChanges:  []string{"PostgreSQL"},
		SelectedServices:   []string{"2"},
		HardwareNeeds:      []string{"iot-sensors"},
		Priority:           models.PriorityHigh,
	}

	b := e.EstimateCustomization(form, base, referenceData(), models.UserClient)

	assert.Equal(t, 1000000.0, b.BaseCost)
	assert.Equal(t, 400000.0, b.FeatureCost)
	assert.Equal(t, 200000.0, b.TechnologyCost)
	assert.Equal(t, 1.2, b.PriorityMultiplier)
	assert.InDelta(t, (1000000.0+400000+200000+250000+200000)*1.2, b.Total, 0.001)

	form.Priority = models.PriorityUrgent
	urgent := e.EstimateCustomization(form, base, referenceData(), models.UserStudent)
	assert.InDelta(t, b.Total/1.2*1.5*0.75, urgent.Total, 0.001)
}

func TestCustomizationWithoutTemplatePrice(t *testing.T) {
	e := NewEstimator(nil)
	b := e.EstimateCustomization(&models.CustomizationForm{Priority: "whenever"}, &models.ProjectTemplate{}, nil, models.UserClient)

	assert.Equal(t, 50000.0, b.Total)
	assert.Equal(t, 1.0, b.PriorityMultiplier)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := []byte("categories:\n  Web Development: 1000000\n  IoT Systems: 3000000\nuser_multipliers:\n  student: 0.5\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	tables, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1000000.0, tables.BaseCost("Web Development"))
	assert.Equal(t, 3000000.0, tables.BaseCost("IoT Systems"))
	assert.Equal(t, 2500000.0, tables.BaseCost("Mobile Development"))
	assert.Equal(t, 0.5, tables.UserMultiplier(models.UserStudent))
	assert.Equal(t, 1.3, tables.UserMultiplier(models.UserBusiness))
	assert.NotEmpty(t, tables.Hardware)
}

func TestParseRejectsNegativePrices(t *testing.T) {
	_, err := Parse([]byte("categories:\n  Web Development: -1\n"))
	assert.Error(t, err)
}

func TestParseRejectsNonFinitePrices(t *testing.T) {
	_, err := Parse([]byte("categories:\n  Web Development: .inf\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("user_multipliers:\n  student: .nan\n"))
	assert.Error(t, err)
}

func TestNonFinitePricesAreIgnored(t *testing.T) {
	e := NewEstimator(nil)
	ref := &models.ReferenceData{
		ServicePackages: []models.ServicePackage{{ID: "bad", Price: models.Amount(math.Inf(1))}},
	}

	b := e.Estimate(&models.ProjectForm{ProjectCategory: "Web Development", SelectedServices: []string{"bad"}},
		ref, models.UserClient)
	assert.Equal(t, 1500000.0, b.Total)
	assert.Equal(t, "TSH 1,500,000", b.Label)

	base := &models.ProjectTemplate{ID: "1", EstimatedPrice: models.Amount(math.NaN())}
	c := e.EstimateCustomization(&models.CustomizationForm{}, base, nil, models.UserClient)
	assert.Equal(t, 50000.0, c.Total)

	_, err := json.Marshal(b)
	assert.NoError(t, err)
}

func TestFormatTSH(t *testing.T) {
	assert.Equal(t, "TSH 0", FormatTSH(0))
	assert.Equal(t, "TSH 2,000,000", FormatTSH(1999999.6))
	assert.Equal(t, "TSH 950", FormatTSH(950.2))
}
