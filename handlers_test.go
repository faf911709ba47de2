package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
	features "github.com/Mimir-AIP/Attrition-Go/pipelines/Features"
	ml "github.com/Mimir-AIP/Attrition-Go/pipelines/ML"
	storage "github.com/Mimir-AIP/Attrition-Go/pipelines/Storage"
	"github.com/Mimir-AIP/Attrition-Go/utils"
)

// newTestServer trains a quick logistic model on synthetic data, saves an
// artifact and a run record, and boots a server from them.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig(t, 120)

	ds, err := dataset.LoadCSV(cfg.Data.CSVPath, dataset.HRSchema())
	require.NoError(t, err)
	transformer := features.NewTransformer(ds.Schema)
	require.NoError(t, transformer.Fit(ds))
	X, y, err := transformer.Transform(ds)
	require.NoError(t, err)

	model := ml.NewLogisticRegression()
	require.NoError(t, model.Fit(X, y))

	evaluator := ml.NewEvaluator()
	report, err := evaluator.Evaluate(model, X, y)
	require.NoError(t, err)

	artifact, err := ml.NewArtifact(model, transformer, 0.5, X[:20], []ml.VariantReport{report})
	require.NoError(t, err)
	require.NoError(t, ensureParentDir(cfg.Storage.ArtifactPath))
	require.NoError(t, artifact.Save(cfg.Storage.ArtifactPath))

	require.NoError(t, ensureParentDir(cfg.Storage.RegistryPath))
	registry, err := storage.OpenRegistry(cfg.Storage.RegistryPath)
	require.NoError(t, err)
	require.NoError(t, registry.SaveRun(&storage.TrainingRun{
		RunID:         artifact.RunID,
		CreatedAt:     artifact.CreatedAt,
		DatasetPath:   cfg.Data.CSVPath,
		Records:       ds.Len(),
		BestAlgorithm: model.Algorithm(),
		Threshold:     0.5,
		ArtifactPath:  cfg.Storage.ArtifactPath,
		Reports:       []ml.VariantReport{report},
	}))
	require.NoError(t, registry.Close())

	server, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp := doRequest(s, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestPredictEndpoint(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(map[string]any{
		"Age": 24, "MonthlyIncome": 2500, "YearsAtCompany": 1,
		"OverTime": "Yes", "JobSatisfaction": 1,
	})
	resp := doRequest(s, "POST", "/api/v1/predict", payload)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body PredictionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Contains(t, []string{"Attrition", "No Attrition"}, body.Prediction)
	assert.GreaterOrEqual(t, body.Probability, 0.0)
	assert.LessOrEqual(t, body.Probability, 1.0)
	assert.Len(t, body.TopFactors, 5)
	assert.Equal(t, s.artifact.RunID, body.RunID)
}

func TestPredictMissingRequiredField(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(map[string]any{
		"Age": 30, "MonthlyIncome": 5000, "YearsAtCompany": 4,
		"OverTime": "No",
	})
	resp := doRequest(s, "POST", "/api/v1/predict", payload)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "JobSatisfaction")
}

func TestPredictMalformedBody(t *testing.T) {
	s := newTestServer(t)
	resp := doRequest(s, "POST", "/api/v1/predict", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doRequest(s, "POST", "/api/v1/predict", []byte(`{"Age": {"nested": true}}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPredictUnseenCategoryStillScores(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(map[string]any{
		"Age": 40, "MonthlyIncome": 9000, "YearsAtCompany": 10,
		"OverTime": "No", "JobSatisfaction": 4,
		"Department": "Quantum Forecasting",
	})
	resp := doRequest(s, "POST", "/api/v1/predict", payload)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestModelEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp := doRequest(s, "GET", "/api/v1/model", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, ml.AlgoLogistic, body["algorithm"])
	assert.Equal(t, s.artifact.RunID, body["run_id"])
	assert.NotEmpty(t, body["reports"])
}

func TestRunsEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp := doRequest(s, "GET", "/api/v1/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Count int                   `json:"count"`
		Runs  []storage.TrainingRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, s.artifact.RunID, body.Runs[0].RunID)
}

func TestIndexServesForm(t *testing.T) {
	s := newTestServer(t)
	resp := doRequest(s, "GET", "/", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Employee Attrition Prediction")
	assert.Contains(t, resp.Body.String(), "MonthlyIncome")
}

func TestServerRequiresArtifact(t *testing.T) {
	cfg := utils.DefaultConfig()
	dir := t.TempDir()
	cfg.Storage.ArtifactPath = dir + "/missing.json"
	cfg.Storage.RegistryPath = dir + "/runs.db"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}
