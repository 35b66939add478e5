package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pritechvior/project-wizard/internal/models"
)

func TestDecodeListAcceptsArrayAndEnvelope(t *testing.T) {
	raw := []byte(`[{"id": 1, "name": "Web Development"}, {"id": "mobile", "name": "Mobile Development"}]`)
	page := []byte(`{"count": 2, "next": null, "previous": null, "results": [{"id": 1, "name": "Web Development"}, {"id": "mobile", "name": "Mobile Development"}]}`)

	fromRaw, err := decodeList[models.Category](raw)
	require.NoError(t, err)
	fromPage, err := decodeList[models.Category](page)
	require.NoError(t, err)

	if diff := cmp.Diff(fromRaw, fromPage); diff != "" {
		t.Errorf("array and envelope decode differently (-raw +page):\n%s", diff)
	}
	assert.Equal(t, models.ID("1"), fromRaw[0].ID)
	assert.Equal(t, models.ID("mobile"), fromRaw[1].ID)
}

func TestDecodeListEmpty(t *testing.T) {
	for _, body := range []string{"", "null", `{}`, `{"results": null}`, `[]`} {
		items, err := decodeList[models.Category]([]byte(body))
		require.NoError(t, err, body)
		assert.Empty(t, items, body)
		assert.NotNil(t, items, body)
	}
}

func TestServicePackagePricesAsStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/service-packages/", r.URL.Path)
		assert.Equal(t, "student", r.URL.Query().Get("user_type"))
		w.Write([]byte(`{"results": [{"id": 3, "name": "Documentation", "price": "300000.00", "user_type": "student"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	pkgs, err := c.GetServicePackages(context.Background(), models.UserStudent)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, models.Amount(300000), pkgs[0].Price)
	assert.Equal(t, models.ID("3"), pkgs[0].ID)
}

func TestNonFinitePricesAreRejected(t *testing.T) {
	for _, body := range []string{
		`[{"id": 1, "name": "Docs", "price": "Infinity"}]`,
		`[{"id": 1, "name": "Docs", "price": "NaN"}]`,
		`[{"id": 1, "name": "Docs", "price": "-Inf"}]`,
	} {
		_, err := decodeList[models.ServicePackage]([]byte(body))
		assert.Error(t, err, body)
	}

	var a models.Amount
	require.NoError(t, json.Unmarshal([]byte(`"1,250.50"`), &a))
	assert.Equal(t, models.Amount(1250.5), a)
}

func TestAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/technologies/":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail": "database unavailable"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	_, err := c.GetTechnologyStacks(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "database unavailable", apiErr.Message)
	assert.False(t, IsNotFound(err))

	_, err = c.GetCourseCategories(context.Background())
	assert.True(t, IsNotFound(err))
}

func TestCreateProjectRequestSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects/requests/", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 41, "status": "pending"}`))
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL).CreateProjectRequest(context.Background(), map[string]string{"title": "x"}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, models.ID("41"), created.ID)
}

func TestClientOptions(t *testing.T) {
	agents := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, NewClient(srv.URL+"/").Ping(ctx))

	c := NewClient(srv.URL+"/", WithUserAgent("project-wizard-server"))
	assert.Equal(t, srv.URL, c.BaseURL())
	require.NoError(t, c.Ping(ctx))

	assert.Equal(t, "pritech-project-wizard", <-agents)
	assert.Equal(t, "project-wizard-server", <-agents)
}

func TestArchiveEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/archive/api/archives/":
			assert.Equal(t, "erp", r.URL.Query().Get("search"))
			w.Write([]byte(`[{"id": 5, "title": "ERP Starter"}]`))
		case "/archive/api/archives/5/":
			w.Write([]byte(`{"id": 5, "title": "ERP Starter"}`))
		case "/archive/api/archives/5/comments/":
			w.Write([]byte(`{"results": [{"id": 1, "comment": "great", "rating": 5}]}`))
		case "/archive/api/archives/5/add_comment/":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id": 2, "comment": "nice", "rating": 4}`))
		case "/archive/api/archives/5/download/":
			w.Write([]byte(`{"download_url": "https://files.example/erp.zip"}`))
		case "/archive/api/archives/5/request_download/":
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL)

	list, err := c.GetArchives(ctx, map[string][]string{"search": {"erp"}})
	require.NoError(t, err)
	require.Len(t, list, 1)

	a, err := c.GetArchive(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "ERP Starter", a.Title)

	comments, err := c.GetArchiveComments(ctx, "5")
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	added, err := c.AddComment(ctx, "5", "nice", 4, "tok")
	require.NoError(t, err)
	assert.Equal(t, 4, added.Rating)

	info, err := c.GetDownloadInfo(ctx, "5", "")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/erp.zip", info.DownloadURL)

	require.NoError(t, c.RequestDownload(ctx, "5", "a@b.c", "please", ""))
}
