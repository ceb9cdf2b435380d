package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scorecard-cli/internal/evidence"
	"github.com/sells-group/scorecard-cli/internal/model"
)

func newTestServer(t *testing.T) (*httptest.Server, *runnerEnv) {
	t.Helper()
	env := newTestEnv(t, &fakeRunner{})
	srv := httptest.NewServer(newRouter(context.Background(), env))
	t.Cleanup(srv.Close)
	return srv, env
}

func TestServeHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeWebhookAnalyze(t *testing.T) {
	srv, env := newTestServer(t)

	resp, err := http.Post(srv.URL+"/webhook/analyze", "application/json",
		strings.NewReader(`{"name":"Acme Trucking","domain":"acmetrucking.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["run_id"])

	// The analysis completes in the background.
	require.Eventually(t, func() bool {
		run, err := env.st.GetRun(context.Background(), body["run_id"])
		return err == nil && run.Status == model.RunStatusComplete
	}, 5*time.Second, 20*time.Millisecond)

	run, err := env.st.GetRun(context.Background(), body["run_id"])
	require.NoError(t, err)
	require.NotNil(t, run.Report)
	assert.True(t, run.Report.Metrics.OwnsCNGFleet)

	audit, err := env.st.ListAudit(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, evidence.ActionAccepted, audit[0].Action)
}

func TestServeWebhookValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/webhook/analyze", "application/json",
		strings.NewReader(`{"domain":"acmetrucking.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/webhook/analyze", "application/json",
		strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeListAndGetRuns(t *testing.T) {
	srv, env := newTestServer(t)
	ctx := context.Background()

	run, _, err := analyzeCompany(ctx, env, model.Company{Name: "Acme Trucking", Domain: "acmetrucking.com"})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/runs?status=complete")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []model.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	one, err := http.Get(srv.URL + "/runs/" + run.ID)
	require.NoError(t, err)
	defer one.Body.Close()
	require.Equal(t, http.StatusOK, one.StatusCode)

	var got model.Run
	require.NoError(t, json.NewDecoder(one.Body).Decode(&got))
	assert.Equal(t, "Acme Trucking", got.Company.Name)

	missing, err := http.Get(srv.URL + "/runs/nonexistent")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServeEmptyRunsList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []model.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Empty(t, runs)
}
