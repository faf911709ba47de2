package main

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
	explain "github.com/Mimir-AIP/Attrition-Go/pipelines/Explain"
)

//go:embed static
var staticFiles embed.FS

// PredictionResponse is the scoring endpoint's response body.
type PredictionResponse struct {
	Prediction  string                `json:"prediction"`
	Probability float64               `json:"probability"`
	Threshold   float64               `json:"threshold"`
	TopFactors  []explain.Attribution `json:"top_factors"`
	RunID       string                `json:"run_id"`
	Algorithm   string                `json:"algorithm"`
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "attrition",
		"version": Version,
	})
}

// handleIndex serves the embedded prediction form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "index page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handlePredict scores one employee record.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	row, err := s.artifact.Transformer.TransformRecord(rec)
	if err != nil {
		if errors.Is(err, dataset.ErrSchemaMismatch) {
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Transform failed")
		writeErrorResponse(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	probability, err := s.model.PredictProba(row)
	if err != nil {
		log.Error().Err(err).Msg("Prediction failed")
		writeErrorResponse(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	attributions, err := s.explainer.Explain(row)
	if err != nil {
		log.Error().Err(err).Msg("Attribution failed")
		writeErrorResponse(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	prediction := "No Attrition"
	if probability >= s.artifact.Threshold {
		prediction = "Attrition"
	}
	writeJSONResponse(w, http.StatusOK, PredictionResponse{
		Prediction:  prediction,
		Probability: probability,
		Threshold:   s.artifact.Threshold,
		TopFactors:  explain.TopK(attributions, 5),
		RunID:       s.artifact.RunID,
		Algorithm:   s.artifact.Algorithm,
	})
}

// handleModel returns metadata and evaluation reports for the loaded model.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"run_id":     s.artifact.RunID,
		"created_at": s.artifact.CreatedAt,
		"algorithm":  s.artifact.Algorithm,
		"threshold":  s.artifact.Threshold,
		"features":   len(s.artifact.Transformer.FeatureNames),
		"reports":    s.artifact.Reports,
	})
}

// handleRuns lists recorded training runs, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.registry.ListRuns(parseLimit(r, 20))
	if err != nil {
		log.Error().Err(err).Msg("Listing runs failed")
		writeErrorResponse(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

// decodeRecord reads a flat JSON object into a record, accepting both
// string and numeric field values.
func decodeRecord(r *http.Request) (dataset.Record, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid request body: %v", err)
	}

	rec := make(dataset.Record, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			rec[key] = v
		case json.Number:
			rec[key] = v.String()
		case bool:
			if v {
				rec[key] = "Yes"
			} else {
				rec[key] = "No"
			}
		default:
			return nil, fmt.Errorf("field %s has unsupported type", key)
		}
	}
	return rec, nil
}
