package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	procflow "github.com/procflow/engine"
	"github.com/procflow/engine/internal/enginetest"
	"github.com/procflow/engine/internal/event"
	"github.com/procflow/engine/internal/server"
	"github.com/procflow/engine/internal/store"
	"github.com/procflow/engine/pkg/api"
)

type testEnv struct {
	router *gin.Engine
	fake   *enginetest.Fake
	bus    *event.Bus
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	return setupWithStore(t, testReportStore(t))
}

func setupWithStore(t *testing.T, reports *store.Store) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := enginetest.New()
	bus := event.NewBus()
	t.Cleanup(bus.Close)

	srv := server.NewServer(fake, reports, bus)
	t.Cleanup(srv.CloseWebSockets)

	return &testEnv{
		router: srv.SetupRoutes(),
		fake:   fake,
		bus:    bus,
	}
}

func testReportStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s := store.New(&store.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func (e *testEnv) request(
	t *testing.T, method, path string, body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

func chainRequest() *api.RunRequest {
	return &api.RunRequest{
		Equipment: []*api.Equipment{
			api.NewEquipment("feed", api.KindStream, api.Config{
				api.ParamPressure: {Value: 50, Unit: "bara"},
			}),
			api.NewEquipment("sep", api.KindSeparator, nil, "feed"),
			api.NewEquipment("comp", api.KindCompressor, api.Config{
				api.ParamPressure: {Value: 100, Unit: "bara"},
			}, "sep"),
		},
	}
}

func TestHealth(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[api.HealthResponse](t, w)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, procflow.Name, res.Service)
	assert.Equal(t, procflow.Version, res.Version)
}

func TestKinds(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodGet, "/kinds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	infos := []api.KindInfo{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, len(api.Kinds()))
	assert.Equal(t, api.KindStream, infos[0].Kind)
	assert.Contains(t, infos[0].Params, api.ParamPressure)
}

func TestRunFlowsheet(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/run", chainRequest())
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[api.RunResponse](t, w)
	require.NotNil(t, res.Report)
	assert.Equal(t, api.StatusCompleted, res.Report.Status)
	assert.Equal(t, []api.Name{"feed", "sep", "comp"}, res.Report.Order)
	assert.Equal(t, []api.Name{"feed", "sep", "comp"}, e.fake.Registered())
}

func TestRunEmptyFlowsheet(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/run", &api.RunRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunCyclicFlowsheet(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/run", &api.RunRequest{
		Equipment: []*api.Equipment{
			api.NewEquipment("a", api.KindValve, nil, "b"),
			api.NewEquipment("b", api.KindValve, nil, "a"),
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	res := decode[api.ErrorResponse](t, w)
	assert.Contains(t, res.Error, "cyclic")
	assert.Equal(t, 0, e.fake.Executions())
}

func TestRunEngineFailure(t *testing.T) {
	e := setup(t)
	e.fake.FailExecute = errors.New("did not converge")

	w := e.request(t, http.MethodPost, "/flowsheet/run", chainRequest())
	require.Equal(t, http.StatusBadGateway, w.Code)

	res := decode[api.RunResponse](t, w)
	require.NotNil(t, res.Report)
	assert.Equal(t, api.StatusFailed, res.Report.Status)
	assert.Contains(t, res.Error, "did not converge")
}

func TestRunScript(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/script",
		&api.ScriptRequest{
			Language: "lua",
			Source: `
stream("feed", {pressure = {value = 50, unit = "bara"}})
separator("sep", {}, "feed")
`,
		})
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[api.RunResponse](t, w)
	require.NotNil(t, res.Report)
	assert.Equal(t, []api.Name{"feed", "sep"}, res.Report.Order)
}

func TestRunScriptUnknownLanguage(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/script",
		&api.ScriptRequest{Language: "cobol", Source: "MOVE 1 TO X"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	res := decode[api.ErrorResponse](t, w)
	assert.Contains(t, res.Error, "unsupported script language")
}

func TestRunScriptDeclarationError(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/script",
		&api.ScriptRequest{
			Language: "lua",
			Source:   `stream("feed", {duty = 5})`,
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, e.fake.Executions())
}

func TestRunHistory(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodPost, "/flowsheet/run", chainRequest())
	require.Equal(t, http.StatusOK, w.Code)
	runID := decode[api.RunResponse](t, w).Report.RunID

	w = e.request(t, http.MethodGet, "/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[api.RunListResponse](t, w)
	assert.Equal(t, []string{runID}, list.Runs)

	w = e.request(t, http.MethodGet, "/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[api.RunResponse](t, w)
	assert.Equal(t, runID, res.Report.RunID)
}

func TestRunHistoryNotFound(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodGet, "/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHistoryBadLimit(t *testing.T) {
	e := setup(t)

	w := e.request(t, http.MethodGet, "/runs?limit=banana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHistoryWithoutStore(t *testing.T) {
	e := setupWithStore(t, nil)

	w := e.request(t, http.MethodGet, "/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Runs still work, they are just not persisted
	w = e.request(t, http.MethodPost, "/flowsheet/run", chainRequest())
	assert.Equal(t, http.StatusOK, w.Code)
}
