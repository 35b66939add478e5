package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestEstimateOffline(t *testing.T) {
	out, _, err := run(t, "estimate", "--offline", "-u", "client", "-c", "Web Development", "--hardware", "arduino-kit")
	require.NoError(t, err)
	assert.Contains(t, out, "TSH 1,650,000")
	assert.Contains(t, out, "TSH 150,000")
}

func TestEstimateWithServices(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/projects/service-packages/" {
			w.Write([]byte(`[{"id": 3, "name": "Documentation", "price": "300000.00"}]`))
			return
		}
		http.NotFound(w, r)
	}))
	defer be.Close()

	out, _, err := run(t, "estimate", "--backend", be.URL, "-u", "student", "-c", "Web Development", "-s", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "TSH 1,350,000")
}

func TestEstimateCustomization(t *testing.T) {
	out, _, err := run(t, "estimate", "--offline", "-u", "client",
		"--template-price", "1000000", "--feature", "SMS alerts", "--priority", "high")
	require.NoError(t, err)
	assert.Contains(t, out, "TSH 200,000")
	assert.Contains(t, out, "1.20")
	assert.Contains(t, out, "TSH 1,440,000")

	// a zero template price falls back to the table default
	out, _, err = run(t, "estimate", "--offline", "-u", "business", "--template-price", "0", "--tech-change", "Vue")
	require.NoError(t, err)
	assert.Contains(t, out, "TSH 325,000")

	_, _, err = run(t, "estimate", "--offline", "--template-price", "1000000", "--priority", "someday")
	assert.ErrorContains(t, err, "unknown priority")
}

func TestEstimateRejectsUserType(t *testing.T) {
	_, _, err := run(t, "estimate", "--offline", "-u", "alien")
	assert.Error(t, err)
}

func TestCatalogPrintsNotices(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/projects/technologies/" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer be.Close()

	out, errOut, err := run(t, "catalog", "--backend", be.URL, "-u", "student")
	require.NoError(t, err)
	assert.Contains(t, out, "Web Development")
	assert.Contains(t, out, "Computer Science")
	assert.Contains(t, errOut, "Failed to load technologies")
}
