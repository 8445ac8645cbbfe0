package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogload_go/internal/aggregator"
	"cogload_go/internal/alert"
	"cogload_go/internal/buffer"
	"cogload_go/internal/classifier"
	"cogload_go/internal/config"
	"cogload_go/internal/storage"
)

type noopTransport struct{}

func (noopTransport) Send(label string) error { return nil }

func newTestAggregator(t *testing.T) (*aggregator.Service, *buffer.Store) {
	t.Helper()

	dir := t.TempDir()
	outputCfg := config.OutputConfig{
		DataFile:       filepath.Join(dir, "data.csv"),
		FeatureFile:    filepath.Join(dir, "features.csv"),
		PredictionFile: filepath.Join(dir, "predictions.csv"),
	}

	channels := []string{"PPG:IR", "EDA", "T1"}
	sink := storage.NewCSVSink(outputCfg, channels)
	require.NoError(t, sink.Initialize())

	store := buffer.NewStore(buffer.DefaultCapacity)
	service := aggregator.NewService(
		config.AggregatorConfig{CardioChannel: "PPG:IR", Channels: channels},
		store,
		classifier.NewAdapter(classifier.Unavailable()),
		alert.NewDebouncer(10),
		sink,
		noopTransport{},
		nil, nil)

	return service, store
}

func feedWindow(store *buffer.Store) {
	for i := 0; i < 50; i++ {
		store.Record("PPG:IR", math.Sin(float64(i)*0.5))
	}
	store.Record("EDA", 0.42)
	store.Record("T1", 33.5)
}

func TestGetStatus(t *testing.T) {
	service, _ := newTestAggregator(t)
	handler := NewHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.GetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stopped", body["status"])
	assert.Equal(t, false, body["modelLoaded"])
}

func TestGetStatus_MetodoInvalido(t *testing.T) {
	service, _ := newTestAggregator(t)
	handler := NewHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.GetStatus(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetCurrentData_SemDados(t *testing.T) {
	service, _ := newTestAggregator(t)
	handler := NewHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/current", nil)
	rec := httptest.NewRecorder()
	handler.GetCurrentData(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCurrentData_AposCiclo(t *testing.T) {
	service, store := newTestAggregator(t)
	handler := NewHandler(service, nil)

	feedWindow(store)
	service.RunCycle()

	req := httptest.NewRequest(http.MethodGet, "/api/current", nil)
	rec := httptest.NewRecorder()
	handler.GetCurrentData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body["bva"])
	assert.Equal(t, classifier.LabelModelNotLoaded, body["cognitiveLoad"])
}

func TestGetPredictions_FallbackMemoria(t *testing.T) {
	service, store := newTestAggregator(t)
	handler := NewHandler(service, nil)

	feedWindow(store)
	service.RunCycle()

	req := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
	rec := httptest.NewRecorder()
	handler.GetPredictions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
}

func TestGetAlerts_Vazio(t *testing.T) {
	service, _ := newTestAggregator(t)
	handler := NewHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	rec := httptest.NewRecorder()
	handler.GetAlerts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	service, _ := newTestAggregator(t)
	router := NewRouter(service, nil, "/api")
	router.Setup()

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/predictions?limit=5", nil)
	assert.Equal(t, 5, parseLimit(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/predictions?limit=abc", nil)
	assert.Equal(t, 50, parseLimit(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
	assert.Equal(t, 50, parseLimit(req, 50))
}
