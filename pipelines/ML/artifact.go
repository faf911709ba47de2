package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	features "github.com/Mimir-AIP/Attrition-Go/pipelines/Features"
)

// ArtifactVersion is the current on-disk artifact format version.
const ArtifactVersion = 1

// Artifact bundles everything scoring needs: the winning model, the
// fitted transformer that produced its feature space, the decision
// threshold, and a background sample for attribution. Persisted as a
// single JSON document.
type Artifact struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Algorithm   string                `json:"algorithm"`
	Model       json.RawMessage       `json:"model"`
	Transformer *features.Transformer `json:"transformer"`
	Threshold   float64               `json:"threshold"`

	// Background holds transformed training rows used as the reference
	// distribution when attributing predictions.
	Background [][]float64 `json:"background"`

	Reports []VariantReport `json:"reports"`
}

// NewArtifact assembles an artifact from a winning model and its context.
func NewArtifact(model Classifier, transformer *features.Transformer, threshold float64, background [][]float64, reports []VariantReport) (*Artifact, error) {
	encoded, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encoding model: %w", err)
	}
	return &Artifact{
		Version:     ArtifactVersion,
		RunID:       uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Algorithm:   model.Algorithm(),
		Model:       encoded,
		Transformer: transformer,
		Threshold:   threshold,
		Background:  background,
		Reports:     reports,
	}, nil
}

// Classifier reconstructs the trained model from the artifact.
func (a *Artifact) Classifier() (Classifier, error) {
	return NewClassifier(a.Algorithm, a.Model)
}

// BestReport returns the evaluation report of the persisted algorithm.
func (a *Artifact) BestReport() (VariantReport, error) {
	for _, r := range a.Reports {
		if r.Algorithm == a.Algorithm {
			return r, nil
		}
	}
	return VariantReport{}, fmt.Errorf("no report for algorithm %s", a.Algorithm)
}

// Save writes the artifact as indented JSON.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing artifact to %s: %w", path, err)
	}
	log.Info().
		Str("path", path).
		Str("run_id", a.RunID).
		Str("algorithm", a.Algorithm).
		Msg("Artifact saved")
	return nil
}

// LoadArtifact reads an artifact from disk and checks its version.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact from %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d, expected %d", a.Version, ArtifactVersion)
	}
	if a.Transformer == nil || !a.Transformer.Fitted {
		return nil, fmt.Errorf("artifact has no fitted transformer")
	}
	return &a, nil
}
