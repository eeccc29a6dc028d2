package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Catalog Catalog
	// Play serves the websocket play channel; nil leaves the route out.
	Play          http.Handler
	ImagesDir     string
	AllowedOrigin string
	Logger        *zap.Logger
	// Ready backs /healthz; nil always reports healthy.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	api := NewAPI(cfg.Catalog, logger)

	router := mux.NewRouter()
	router.Use(corsMiddleware(cfg.AllowedOrigin))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMethodNotAllowed(w, http.MethodGet)
	})

	router.HandleFunc("/api/quizzes", api.HandleListQuizzes).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/quizzes/{quizId}", api.HandleGetQuiz).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/questions/{quizId}", api.HandleQuestions).Methods(http.MethodGet, http.MethodOptions)
	if cfg.Play != nil {
		router.Handle("/api/play/{quizId}", cfg.Play).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", healthHandler(cfg.Ready)).Methods(http.MethodGet)

	if cfg.ImagesDir != "" {
		images := http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImagesDir)))
		router.PathPrefix("/images/").Handler(images).Methods(http.MethodGet, http.MethodHead)
	}

	return accessLogMiddleware(logger)(router)
}
