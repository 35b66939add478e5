package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pritechvior/project-wizard/internal/models"
)

// GetProjectCategories lists project categories
func (c *Client) GetProjectCategories(ctx context.Context) ([]models.Category, error) {
	body, err := c.get(ctx, "/api/projects/categories/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Category](body)
}

// GetTechnologyStacks lists technology stacks
func (c *Client) GetTechnologyStacks(ctx context.Context) ([]models.TechnologyStack, error) {
	body, err := c.get(ctx, "/api/projects/technologies/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.TechnologyStack](body)
}

// GetServicePackages lists service packages, filtered by user type when set
func (c *Client) GetServicePackages(ctx context.Context, ut models.UserType) ([]models.ServicePackage, error) {
	var q url.Values
	if ut != "" {
		q = url.Values{"user_type": {string(ut)}}
	}
	body, err := c.get(ctx, "/api/projects/service-packages/", q)
	if err != nil {
		return nil, err
	}
	return decodeList[models.ServicePackage](body)
}

// GetCourseCategories lists academic course categories
func (c *Client) GetCourseCategories(ctx context.Context) ([]models.CourseCategory, error) {
	body, err := c.get(ctx, "/api/projects/course-categories/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.CourseCategory](body)
}

// GetProjectTemplates lists requestable project templates
func (c *Client) GetProjectTemplates(ctx context.Context, params url.Values) ([]models.ProjectTemplate, error) {
	body, err := c.get(ctx, "/api/projects/templates/", params)
	if err != nil {
		return nil, err
	}
	return decodeList[models.ProjectTemplate](body)
}

// GetProjectTemplate fetches one template by slug or id
func (c *Client) GetProjectTemplate(ctx context.Context, slug string) (*models.ProjectTemplate, error) {
	body, err := c.get(ctx, "/api/projects/templates/"+url.PathEscape(slug)+"/", nil)
	if err != nil {
		return nil, err
	}
	var tmpl models.ProjectTemplate
	if err := json.Unmarshal(body, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return &tmpl, nil
}

// CreatedRequest is the backend's answer to a create-request call
type CreatedRequest struct {
	ID     models.ID `json:"id"`
	Status string    `json:"status,omitempty"`
}

// CreateProjectRequest posts a project request. idempotencyKey is sent as
// the Idempotency-Key header when non-empty.
func (c *Client) CreateProjectRequest(ctx context.Context, payload interface{}, idempotencyKey string) (*CreatedRequest, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	body, err := c.post(ctx, "/api/projects/requests/", payload, headers)
	if err != nil {
		return nil, err
	}

	var created CreatedRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, fmt.Errorf("failed to decode created request: %w", err)
		}
	}
	return &created, nil
}
