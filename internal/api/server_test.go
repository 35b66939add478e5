package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/config"
	"github.com/pritechvior/project-wizard/internal/health"
	"github.com/pritechvior/project-wizard/internal/intake"
	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/notify"
	"github.com/pritechvior/project-wizard/internal/pricing"
	"github.com/pritechvior/project-wizard/internal/storage"
	"github.com/pritechvior/project-wizard/internal/submission"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type stubCatalog struct {
	data        *models.ReferenceData
	notices     []models.Notice
	invalidated atomic.Bool
}

func (c *stubCatalog) Load(context.Context, models.UserType) (*models.ReferenceData, []models.Notice) {
	return c.data, c.notices
}

func (c *stubCatalog) Refresh(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice) {
	return c.Load(ctx, ut)
}

func (c *stubCatalog) RefreshAll(context.Context) int { return 2 }

func (c *stubCatalog) Invalidate() { c.invalidated.Store(true) }

func (c *stubCatalog) Template(_ context.Context, _ models.UserType, id string) (*models.ProjectTemplate, error) {
	if t, ok := c.data.Template(id); ok {
		return &t, nil
	}
	return nil, intake.ErrTemplateNotFound
}

type stubArchives struct {
	mu     sync.Mutex
	tokens []string
}

func (a *stubArchives) seen(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = append(a.tokens, token)
}

func (a *stubArchives) seenTokens() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.tokens...)
}

func (*stubArchives) GetArchives(_ context.Context, params url.Values) ([]backend.Archive, error) {
	return []backend.Archive{{ID: "5", Title: "ERP Starter " + params.Get("search")}}, nil
}

func (*stubArchives) GetArchive(_ context.Context, id string) (*backend.Archive, error) {
	if id != "5" {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Not found."}
	}
	return &backend.Archive{ID: "5", Title: "ERP Starter"}, nil
}

func (*stubArchives) GetArchiveComments(context.Context, string) ([]backend.ArchiveComment, error) {
	return nil, &backend.APIError{Status: http.StatusInternalServerError, Message: "boom"}
}

func (a *stubArchives) AddComment(_ context.Context, id, comment string, rating int, token string) (*backend.ArchiveComment, error) {
	a.seen(token)
	if token == "" {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Message: "Authentication credentials were not provided."}
	}
	return &backend.ArchiveComment{ID: "2", Comment: comment, Rating: rating}, nil
}

func (a *stubArchives) RequestDownload(_ context.Context, id, email, message, token string) error {
	a.seen(token)
	if id != "5" {
		return &backend.APIError{Status: http.StatusNotFound, Message: "Not found."}
	}
	return nil
}

func (a *stubArchives) GetDownloadInfo(_ context.Context, id, token string) (*backend.DownloadInfo, error) {
	a.seen(token)
	return &backend.DownloadInfo{DownloadURL: "https://files.example/" + id + ".zip"}, nil
}

type testEnv struct {
	srv      *httptest.Server
	health   *health.Registry
	catalog  *stubCatalog
	archives *stubArchives
	hub      *notify.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat := &stubCatalog{data: &models.ReferenceData{
		Categories:      []models.Category{{ID: "1", Name: "Web Development"}},
		ServicePackages: []models.ServicePackage{{ID: "3", Name: "Documentation", Price: 300000}},
	}}
	archives := &stubArchives{}
	estimator := pricing.NewEstimator(nil)
	repo := storage.NewMemorySubmissionRepository()
	hub := notify.NewHub(32)
	registry := health.NewRegistry(time.Second)

	manager := intake.NewManager(
		storage.NewMemorySessionStore(time.Hour),
		repo,
		cat,
		estimator,
		submission.NewSubmitter(submission.ModeSimulate, nil, repo, estimator),
		hub,
	)

	server := NewServer(config.ServerConfig{AdminAPIKeys: []string{"secret-admin-key"}}, Dependencies{
		Manager:  manager,
		Catalog:  cat,
		Archives: archives,
		Hardware: estimator.Tables().Hardware,
		Health:   registry,
		Hub:      hub,
	})

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, health: registry, catalog: cat, archives: archives, hub: hub}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

type wizardView struct {
	ID            string `json:"id"`
	Step          int    `json:"step"`
	TotalSteps    int    `json:"total_steps"`
	Status        string `json:"status"`
	EstimateLabel string `json:"estimate_label"`
	Section       struct {
		ID string `json:"id"`
	} `json:"section"`
	Notices []models.Notice `json:"notices"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (e *testEnv) createWizard(t *testing.T, userType string) wizardView {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/v1/wizards", models.CreateWizardRequest{UserType: userType})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)
	return decode[wizardView](t, env.Data)
}

func TestHealthAndReady(t *testing.T) {
	e := newTestEnv(t)

	status, env := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	e.createWizard(t, "client")
	e.createWizard(t, "student")

	e.health.Register("postgres", health.CheckerFunc(func(context.Context) error { return nil }))
	status, env = e.do(t, http.MethodGet, "/api/v1/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	ready := decode[struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}](t, env.Data)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, 2, ready.Sessions)

	e.health.Register("redis", health.CheckerFunc(func(context.Context) error { return errors.New("refused") }))
	status, env = e.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_ready", env.Error.Code)
}

func TestWizardFlow(t *testing.T) {
	e := newTestEnv(t)
	v := e.createWizard(t, "student")
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, 8, v.TotalSteps)
	assert.Equal(t, "basic", v.Section.ID)
	assert.Equal(t, "TSH 1,500,000", v.EstimateLabel)

	base := "/api/v1/wizards/" + v.ID

	status, env := e.do(t, http.MethodPut, base+"/fields/projectCategory", models.FieldValueRequest{Value: "Web Development"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "TSH 1,125,000", decode[wizardView](t, env.Data).EstimateLabel)

	status, env = e.do(t, http.MethodPost, base+"/fields/selectedServices/toggle", models.FieldValueRequest{Value: "3"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "TSH 1,350,000", decode[wizardView](t, env.Data).EstimateLabel)

	status, env = e.do(t, http.MethodGet, base+"/estimate", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1350000.0, decode[pricing.Breakdown](t, env.Data).Total)

	status, env = e.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "academic", decode[wizardView](t, env.Data).Section.ID)

	status, env = e.do(t, http.MethodPost, base+"/prev", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[wizardView](t, env.Data).Step)

	status, env = e.do(t, http.MethodPut, base+"/fields/nope", models.FieldValueRequest{Value: "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "unknown_field", env.Error.Code)

	status, env = e.do(t, http.MethodPut, base+"/fields/databaseRequired", models.FieldValueRequest{Value: []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_value", env.Error.Code)

	status, env = e.do(t, http.MethodPost, base+"/fields/coreFeatures/toggle", models.FieldValueRequest{Value: 3})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestFieldNotApplicable(t *testing.T) {
	e := newTestEnv(t)
	v := e.createWizard(t, "client")

	status, env := e.do(t, http.MethodPut, "/api/v1/wizards/"+v.ID+"/fields/institution", models.FieldValueRequest{Value: "UDSM"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "field_not_applicable", env.Error.Code)
}

func TestCreateValidation(t *testing.T) {
	e := newTestEnv(t)

	status, env := e.do(t, http.MethodPost, "/api/v1/wizards", models.CreateWizardRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, env = e.do(t, http.MethodPost, "/api/v1/wizards", models.CreateWizardRequest{UserType: "alien"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, env = e.do(t, http.MethodPost, "/api/v1/wizards",
		models.CreateWizardRequest{UserType: "client", Mode: "customization", TemplateID: "ghost"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "template_not_found", env.Error.Code)

	status, env = e.do(t, http.MethodGet, "/api/v1/wizards/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestSubmitAndList(t *testing.T) {
	e := newTestEnv(t)
	v := e.createWizard(t, "business")
	base := "/api/v1/wizards/" + v.ID

	status, env := e.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, status)
	first := decode[submission.Result](t, env.Data)
	assert.Regexp(t, `^PV-BUSINESS-\d{6}$`, first.Record.ReferenceCode)

	status, env = e.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
	again := decode[submission.Result](t, env.Data)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Record.ReferenceCode, again.Record.ReferenceCode)

	status, env = e.do(t, http.MethodPut, base+"/fields/projectTitle", models.FieldValueRequest{Value: "late"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_submitted", env.Error.Code)

	status, env = e.do(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_submitted", env.Error.Code)

	status, env = e.do(t, http.MethodGet, "/api/v1/submissions", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing_api_key", env.Error.Code)

	status, env = e.do(t, http.MethodGet, "/api/v1/submissions", nil, "Authorization", "Bearer wrong-key-123")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_api_key", env.Error.Code)

	status, env = e.do(t, http.MethodGet, "/api/v1/submissions?user_type=business", nil, "X-API-Key", "secret-admin-key")
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Count int `json:"count"`
	}](t, env.Data)
	assert.Equal(t, 1, list.Count)

	status, _ = e.do(t, http.MethodGet, "/api/v1/submissions/"+first.Record.ReferenceCode, nil, "X-API-Key", "secret-admin-key")
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodGet, "/api/v1/submissions/PV-NONE-000000", nil, "X-API-Key", "secret-admin-key")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCatalogRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.catalog.notices = []models.Notice{models.NewNotice(models.NoticeError, "technologies", "Failed to load technologies")}

	status, env := e.do(t, http.MethodGet, "/api/v1/catalog", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, env = e.do(t, http.MethodGet, "/api/v1/catalog?user_type=student", nil)
	require.Equal(t, http.StatusOK, status)
	cat := decode[struct {
		Categories []models.Category `json:"categories"`
		Notices    []models.Notice   `json:"notices"`
	}](t, env.Data)
	assert.Len(t, cat.Categories, 1)
	assert.Len(t, cat.Notices, 1)

	status, env = e.do(t, http.MethodGet, "/api/v1/catalog/hardware", nil)
	require.Equal(t, http.StatusOK, status)
	hw := decode[struct {
		Total int `json:"total"`
	}](t, env.Data)
	assert.Equal(t, 5, hw.Total)

	status, _ = e.do(t, http.MethodPost, "/api/v1/catalog/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = e.do(t, http.MethodPost, "/api/v1/catalog/refresh", nil, "X-API-Key", "secret-admin-key")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"refreshed":2`)
	assert.False(t, e.catalog.invalidated.Load())

	status, env = e.do(t, http.MethodPost, "/api/v1/catalog/refresh?drop=true", nil, "X-API-Key", "secret-admin-key")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"dropped":true`)
	assert.True(t, e.catalog.invalidated.Load())
}

func TestArchiveRoutes(t *testing.T) {
	e := newTestEnv(t)

	status, env := e.do(t, http.MethodGet, "/api/v1/archives?search=lite", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "ERP Starter lite")

	status, _ = e.do(t, http.MethodGet, "/api/v1/archives/5", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = e.do(t, http.MethodGet, "/api/v1/archives/9", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Error.Code)

	status, env = e.do(t, http.MethodGet, "/api/v1/archives/5/comments", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "backend_error", env.Error.Code)
}

func TestArchiveWriteRoutes(t *testing.T) {
	e := newTestEnv(t)

	status, env := e.do(t, http.MethodPost, "/api/v1/archives/5/add_comment",
		AddCommentRequest{Comment: "Great starter", Rating: 5}, "Authorization", "Bearer user-token")
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), "Great starter")

	status, env = e.do(t, http.MethodPost, "/api/v1/archives/5/add_comment", AddCommentRequest{Comment: "anon", Rating: 3})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "backend_unauthorized", env.Error.Code)

	status, env = e.do(t, http.MethodPost, "/api/v1/archives/5/add_comment", AddCommentRequest{Comment: "x", Rating: 9})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, _ = e.do(t, http.MethodPost, "/api/v1/archives/5/request_download",
		DownloadRequest{Email: "a@b.co", Message: "for my thesis"}, "Authorization", "Bearer user-token")
	assert.Equal(t, http.StatusAccepted, status)

	status, env = e.do(t, http.MethodPost, "/api/v1/archives/9/request_download", DownloadRequest{Email: "a@b.co"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Error.Code)

	status, env = e.do(t, http.MethodPost, "/api/v1/archives/5/request_download", DownloadRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Error.Code)

	status, env = e.do(t, http.MethodPost, "/api/v1/archives/5/download", nil, "Authorization", "Bearer user-token")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "https://files.example/5.zip")

	// validation failures never reach the backend
	assert.Equal(t, []string{"user-token", "", "user-token", "", "user-token"}, e.archives.seenTokens())
}

func TestLiveStream(t *testing.T) {
	e := newTestEnv(t)
	v := e.createWizard(t, "client")

	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/v1/wizards/" + v.ID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventSnapshot, ev.Type)

	status, _ := e.do(t, http.MethodPut, "/api/v1/wizards/"+v.ID+"/fields/projectTitle", models.FieldValueRequest{Value: "Clinic"})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventSnapshot, ev.Type)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventEstimate, ev.Type)

	status, _ = e.do(t, http.MethodDelete, "/api/v1/wizards/"+v.ID, nil)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventClosed, ev.Type)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestLiveUnknownSession(t *testing.T) {
	e := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/v1/wizards/missing/live"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the subscription taken ahead of the lookup is released
	assert.Zero(t, e.hub.Subscribers("missing"))
}
