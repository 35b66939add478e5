// Package client is a Go SDK for the project wizard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Error is an API error response
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsCode reports whether err is an API error with the given code
func IsCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Client is a Go SDK for the project wizard API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey sets the admin key sent on submission and refresh calls
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient creates a new project wizard client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Field is one input of the current wizard step
type Field struct {
	Name     string          `json:"name"`
	Label    string          `json:"label"`
	Kind     string          `json:"kind"`
	Required bool            `json:"required"`
	Value    json.RawMessage `json:"value"`
	Choices  []Choice        `json:"choices,omitempty"`
}

// Choice is a selectable option of a field
type Choice struct {
	Value       string  `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// Section is the rendered current step
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Estimate is an itemised cost estimate
type Estimate struct {
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

// Wizard is the state of a wizard session
type Wizard struct {
	ID            string                  `json:"id"`
	Mode          string                  `json:"mode"`
	UserType      string                  `json:"user_type"`
	Status        string                  `json:"status"`
	Step          int                     `json:"step"`
	TotalSteps    int                     `json:"total_steps"`
	IsLastStep    bool                    `json:"is_last_step"`
	Section       Section                 `json:"section"`
	Form          json.RawMessage         `json:"form"`
	Template      *models.ProjectTemplate `json:"template,omitempty"`
	Estimate      Estimate                `json:"estimate"`
	EstimateLabel string                  `json:"estimate_label"`
	Notices       []models.Notice         `json:"notices"`
	ReferenceCode string                  `json:"reference_code,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// SubmitResult is returned by Submit
type SubmitResult struct {
	Record   *models.SubmissionRecord `json:"record"`
	Summary  models.SubmissionSummary `json:"summary"`
	Replayed bool                     `json:"replayed"`
}

// Catalog is reference data with the notices raised while loading it
type Catalog struct {
	models.ReferenceData
	Notices []models.Notice `json:"notices"`
}

// CreateOptions starts a wizard
type CreateOptions struct {
	UserType   string
	Mode       string
	TemplateID string
}

// ListOptions contains options for listing submissions
type ListOptions struct {
	UserType string
	Limit    int
	Offset   int
}

func wizardPath(id string, parts ...string) string {
	p := "/api/v1/wizards/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// CreateWizard starts a new wizard session
func (c *Client) CreateWizard(ctx context.Context, opts CreateOptions) (*Wizard, error) {
	req := models.CreateWizardRequest{UserType: opts.UserType, Mode: opts.Mode, TemplateID: opts.TemplateID}
	return call[Wizard](ctx, c, http.MethodPost, "/api/v1/wizards", req)
}

// GetWizard retrieves a wizard session
func (c *Client) GetWizard(ctx context.Context, id string) (*Wizard, error) {
	return call[Wizard](ctx, c, http.MethodGet, wizardPath(id), nil)
}

// DeleteWizard abandons a wizard session
func (c *Client) DeleteWizard(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, wizardPath(id), nil)
	return err
}

// SetField sets a field of the session's form
func (c *Client) SetField(ctx context.Context, id, name string, value interface{}) (*Wizard, error) {
	return call[Wizard](ctx, c, http.MethodPut, wizardPath(id, "fields", url.PathEscape(name)),
		models.FieldValueRequest{Value: value})
}

// ToggleField adds value to a list field, or removes it when present
func (c *Client) ToggleField(ctx context.Context, id, name, value string) (*Wizard, error) {
	return call[Wizard](ctx, c, http.MethodPost, wizardPath(id, "fields", url.PathEscape(name), "toggle"),
		models.FieldValueRequest{Value: value})
}

// Next advances to the next step
func (c *Client) Next(ctx context.Context, id string) (*Wizard, error) {
	return call[Wizard](ctx, c, http.MethodPost, wizardPath(id, "next"), nil)
}

// Prev goes back one step
func (c *Client) Prev(ctx context.Context, id string) (*Wizard, error) {
	return call[Wizard](ctx, c, http.MethodPost, wizardPath(id, "prev"), nil)
}

// Estimate prices the session's form
func (c *Client) Estimate(ctx context.Context, id string) (*Estimate, error) {
	return call[Estimate](ctx, c, http.MethodGet, wizardPath(id, "estimate"), nil)
}

// Submit submits the session. Retrying a submitted session returns the
// original record with Replayed set.
func (c *Client) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	return call[SubmitResult](ctx, c, http.MethodPost, wizardPath(id, "submit"), nil)
}

// ListSubmissions lists recorded submissions, newest first
func (c *Client) ListSubmissions(ctx context.Context, opts ListOptions) ([]*models.SubmissionRecord, error) {
	q := url.Values{}
	if opts.UserType != "" {
		q.Set("user_type", opts.UserType)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/v1/submissions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out, err := call[struct {
		Submissions []*models.SubmissionRecord `json:"submissions"`
	}](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return out.Submissions, nil
}

// GetSubmission retrieves a submission by reference code
func (c *Client) GetSubmission(ctx context.Context, referenceCode string) (*models.SubmissionRecord, error) {
	return call[models.SubmissionRecord](ctx, c, http.MethodGet, "/api/v1/submissions/"+url.PathEscape(referenceCode), nil)
}

// Catalog retrieves reference data for a user type
func (c *Client) Catalog(ctx context.Context, userType string) (*Catalog, error) {
	return call[Catalog](ctx, c, http.MethodGet, "/api/v1/catalog?user_type="+url.QueryEscape(userType), nil)
}

// RefreshCatalog drops and re-fetches cached reference data. It returns
// the number of user types refreshed.
func (c *Client) RefreshCatalog(ctx context.Context) (int, error) {
	out, err := call[struct {
		Refreshed int `json:"refreshed"`
	}](ctx, c, http.MethodPost, "/api/v1/catalog/refresh", nil)
	if err != nil {
		return 0, err
	}
	return out.Refreshed, nil
}

// Hardware lists the hardware add-ons
func (c *Client) Hardware(ctx context.Context) ([]models.HardwareItem, error) {
	out, err := call[struct {
		Hardware []models.HardwareItem `json:"hardware"`
	}](ctx, c, http.MethodGet, "/api/v1/catalog/hardware", nil)
	if err != nil {
		return nil, err
	}
	return out.Hardware, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodGet, "/health", nil)
	return err
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    *T   `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs a request and unwraps the response envelope
func call[T any](ctx context.Context, c *Client, method, path string, in interface{}) (*T, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	status, resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var result envelope[T]
	if err := json.Unmarshal(resp, &result); err != nil {
		if status >= 400 {
			return nil, &Error{Status: status, Code: "http_error", Message: string(resp)}
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		apiErr := &Error{Status: status, Code: "unknown", Message: http.StatusText(status)}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return nil, apiErr
	}

	if result.Data == nil {
		result.Data = new(T)
	}
	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
