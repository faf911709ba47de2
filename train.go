package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	dataset "github.com/Mimir-AIP/Attrition-Go/pipelines/Dataset"
	explain "github.com/Mimir-AIP/Attrition-Go/pipelines/Explain"
	features "github.com/Mimir-AIP/Attrition-Go/pipelines/Features"
	ml "github.com/Mimir-AIP/Attrition-Go/pipelines/ML"
	resample "github.com/Mimir-AIP/Attrition-Go/pipelines/Resample"
	storage "github.com/Mimir-AIP/Attrition-Go/pipelines/Storage"
	"github.com/Mimir-AIP/Attrition-Go/utils"
)

// TrainingSummary is the outcome of one end-to-end training run.
type TrainingSummary struct {
	Run      *storage.TrainingRun
	Fairness []explain.FairnessReport
}

// RunTraining executes the full pipeline: load, split, fit the
// transformer on the training partition, rebalance, train every variant,
// evaluate on the held-out partition, audit fairness, and persist the
// winning model plus the run record.
func RunTraining(cfg *utils.Config) (*TrainingSummary, error) {
	started := time.Now()

	ds, err := dataset.LoadCSV(cfg.Data.CSVPath, dataset.HRSchema())
	if err != nil {
		return nil, err
	}

	train, test, err := ds.StratifiedSplit(cfg.Data.TestFraction, cfg.Training.Seed)
	if err != nil {
		return nil, fmt.Errorf("splitting dataset: %w", err)
	}
	log.Info().Int("train", train.Len()).Int("test", test.Len()).Msg("Dataset split")

	transformer := features.NewTransformer(ds.Schema)
	if err := transformer.Fit(train); err != nil {
		return nil, fmt.Errorf("fitting transformer: %w", err)
	}
	trainX, trainY, err := transformer.Transform(train)
	if err != nil {
		return nil, fmt.Errorf("transforming training partition: %w", err)
	}
	testX, testY, err := transformer.Transform(test)
	if err != nil {
		return nil, fmt.Errorf("transforming test partition: %w", err)
	}

	// Background for attribution comes from real training rows, captured
	// before any synthetic rows are added.
	background := backgroundSample(trainX, cfg.Explain.BackgroundSize)

	smote := resample.NewSMOTE(cfg.Training.Seed)
	smote.K = cfg.Training.SMOTENeighbors
	smote.TargetRatio = cfg.Training.TargetRatio
	trainX, trainY, err = smote.Resample(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("rebalancing training partition: %w", err)
	}

	trainer := ml.NewTrainer(cfg.Training.Seed)
	trainer.Folds = cfg.Training.Folds
	trainer.Evaluator = &ml.Evaluator{Threshold: cfg.Training.Threshold, CostRatio: cfg.Training.CostRatio}
	results, err := trainer.TrainVariants(trainX, trainY, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("training variants: %w", err)
	}

	best, err := ml.Best(results)
	if err != nil {
		return nil, err
	}

	reports := make([]ml.VariantReport, 0, len(results))
	for _, result := range results {
		reports = append(reports, result.Report)
	}
	reports = ml.RankReports(reports)

	auditor := explain.NewAuditor(best.Model, transformer, cfg.Training.Threshold)
	auditor.Tolerance = cfg.Explain.Tolerance
	fairness, err := auditor.Audit(test)
	if err != nil {
		return nil, fmt.Errorf("fairness audit: %w", err)
	}

	artifact, err := ml.NewArtifact(best.Model, transformer, cfg.Training.Threshold, background, reports)
	if err != nil {
		return nil, err
	}
	if err := ensureParentDir(cfg.Storage.ArtifactPath); err != nil {
		return nil, err
	}
	if err := artifact.Save(cfg.Storage.ArtifactPath); err != nil {
		return nil, err
	}

	run := &storage.TrainingRun{
		RunID:         artifact.RunID,
		CreatedAt:     artifact.CreatedAt,
		DatasetPath:   cfg.Data.CSVPath,
		Records:       ds.Len(),
		BestAlgorithm: best.Model.Algorithm(),
		Threshold:     cfg.Training.Threshold,
		ArtifactPath:  cfg.Storage.ArtifactPath,
		Reports:       reports,
	}
	if err := ensureParentDir(cfg.Storage.RegistryPath); err != nil {
		return nil, err
	}
	registry, err := storage.OpenRegistry(cfg.Storage.RegistryPath)
	if err != nil {
		return nil, err
	}
	defer registry.Close()
	if err := registry.SaveRun(run); err != nil {
		return nil, err
	}

	log.Info().
		Str("best", run.BestAlgorithm).
		Dur("elapsed", time.Since(started)).
		Msg("Pipeline finished")
	return &TrainingSummary{Run: run, Fairness: fairness}, nil
}

// backgroundSample takes up to size leading rows of the training matrix.
func backgroundSample(X [][]float64, size int) [][]float64 {
	if size <= 0 || size > len(X) {
		size = len(X)
	}
	background := make([][]float64, size)
	for i := 0; i < size; i++ {
		background[i] = append([]float64(nil), X[i]...)
	}
	return background
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
