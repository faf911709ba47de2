package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	explain "github.com/Mimir-AIP/Attrition-Go/pipelines/Explain"
	ml "github.com/Mimir-AIP/Attrition-Go/pipelines/ML"
	storage "github.com/Mimir-AIP/Attrition-Go/pipelines/Storage"
	"github.com/Mimir-AIP/Attrition-Go/utils"
)

// Server serves predictions from the persisted model artifact.
type Server struct {
	router    *mux.Router
	config    *utils.Config
	artifact  *ml.Artifact
	model     ml.Classifier
	explainer *explain.Explainer
	registry  *storage.Registry
}

// NewServer loads the model artifact and registry and wires the routes.
func NewServer(cfg *utils.Config) (*Server, error) {
	artifact, err := ml.LoadArtifact(cfg.Storage.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("loading model artifact: %w", err)
	}
	model, err := artifact.Classifier()
	if err != nil {
		return nil, fmt.Errorf("restoring model: %w", err)
	}
	explainer, err := explain.NewExplainer(model, artifact.Background, artifact.Transformer.FeatureNames, cfg.Training.Seed)
	if err != nil {
		return nil, fmt.Errorf("building explainer: %w", err)
	}
	explainer.Samples = cfg.Explain.Samples

	registry, err := storage.OpenRegistry(cfg.Storage.RegistryPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    mux.NewRouter(),
		config:    cfg,
		artifact:  artifact,
		model:     model,
		explainer: explainer,
		registry:  registry,
	}
	s.setupRoutes()

	log.Info().
		Str("algorithm", artifact.Algorithm).
		Str("run_id", artifact.RunID).
		Msg("Model loaded")
	return s, nil
}

// setupRoutes wires middleware and the versioned API routes.
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/predict", s.handlePredict).Methods("POST")
	v1.HandleFunc("/model", s.handleModel).Methods("GET")
	v1.HandleFunc("/runs", s.handleRuns).Methods("GET")
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Server listening")
	return srv.ListenAndServe()
}

// Close releases server resources.
func (s *Server) Close() error {
	return s.registry.Close()
}
