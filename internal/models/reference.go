package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a backend identifier. The backend emits numeric primary keys for
// some resources and slugs for others, so both decode into a string.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Amount is a currency amount in TSH. Django serializes decimals as
// strings ("1500000.00"), older endpoints emit plain numbers.
type Amount float64

// UnmarshalJSON accepts a JSON number, a numeric string or null. NaN and
// infinities are rejected.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
		if raw == "" {
			*a = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid amount %q: not a finite number", raw)
	}
	*a = Amount(f)
	return nil
}

// Category is a project category (Web Development, E-Commerce, ...)
type Category struct {
	ID          ID     `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Slug        string `json:"slug,omitempty" yaml:"slug"`
	Description string `json:"description,omitempty" yaml:"description"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
}

// TechnologyStack is a selectable technology stack
type TechnologyStack struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// ServicePackage is a priced support service offered to a user type
type ServicePackage struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       Amount   `json:"price"`
	UserType    string   `json:"user_type,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// CourseCategory is an academic course offered to students
type CourseCategory struct {
	ID          ID     `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// ProjectTemplate is a requestable project the customization wizard starts from
type ProjectTemplate struct {
	ID                ID       `json:"id"`
	Slug              string   `json:"slug,omitempty"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Category          string   `json:"category,omitempty"`
	EstimatedPrice    Amount   `json:"estimated_price"`
	EstimatedDuration string   `json:"estimated_duration,omitempty"`
	UserType          string   `json:"user_type,omitempty"`
	Technologies      []string `json:"technologies,omitempty"`
	Features          []string `json:"features,omitempty"`
}

// HardwareItem is an entry of the static hardware add-on table
type HardwareItem struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Price          float64  `json:"price" yaml:"price"`
	Specifications []string `json:"specifications,omitempty" yaml:"specifications"`
}

// ReferenceData holds the lookup tables a wizard renders options from
type ReferenceData struct {
	UserType         UserType          `json:"user_type"`
	Categories       []Category        `json:"categories"`
	Technologies     []TechnologyStack `json:"technologies"`
	ServicePackages  []ServicePackage  `json:"service_packages"`
	CourseCategories []CourseCategory  `json:"course_categories"`
	Templates        []ProjectTemplate `json:"templates"`
	Hardware         []HardwareItem    `json:"hardware"`
}

// ServicePackage returns the package with the given id
func (r *ReferenceData) ServicePackage(id string) (ServicePackage, bool) {
	if r == nil {
		return ServicePackage{}, false
	}
	for _, p := range r.ServicePackages {
		if string(p.ID) == id {
			return p, true
		}
	}
	return ServicePackage{}, false
}

// Template returns the template matching an id or slug
func (r *ReferenceData) Template(idOrSlug string) (ProjectTemplate, bool) {
	if r == nil {
		return ProjectTemplate{}, false
	}
	for _, t := range r.Templates {
		if string(t.ID) == idOrSlug || (t.Slug != "" && t.Slug == idOrSlug) {
			return t, true
		}
	}
	return ProjectTemplate{}, false
}
