// Package api provides the read-only status HTTP server. It reports
// batch progress, the artifact index, and verification results for
// dashboards polling a long conversion run.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtforge/mtforge/internal/batch"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/catalog"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
	"github.com/mtforge/mtforge/internal/verify"
)

// Server exposes workspace state over HTTP. It never mutates anything:
// conversion and verification happen in the CLI process, the server
// only reads what they persist.
type Server struct {
	db             *sqlite.DB
	progress       *batch.Store
	resultsPath    string
	version        string
	metricsEnabled bool
}

func NewServer(db *sqlite.DB, progress *batch.Store, resultsPath, version string) *Server {
	return &Server{db: db, progress: progress, resultsPath: resultsPath, version: version}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := s.db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{"status": status})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/pairs", s.handlePairs)
		r.Get("/progress", s.handleProgress)
		r.Get("/artifacts", s.handleArtifacts)
		r.Get("/artifacts/{pair}", s.handleArtifact)
		r.Get("/results", s.handleResults)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs := catalog.Pairs()
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": len(keys),
		"pairs": keys,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	log, err := s.progress.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	infos, err := s.db.ListArtifacts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]interface{}, len(infos))
	for i, info := range infos {
		out[i] = artifactJSON(info)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(out),
		"artifacts": out,
	})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	pair := chi.URLParam(r, "pair")
	if _, err := domain.ParsePair(pair); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.db.GetArtifact(pair)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "no artifact for pair "+pair)
		return
	}
	writeJSON(w, http.StatusOK, artifactJSON(*info))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	result, err := verify.ReadResults(s.resultsPath)
	if os.IsNotExist(err) {
		writeError(w, http.StatusNotFound, "no verification run recorded")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func artifactJSON(info domain.ArtifactInfo) map[string]interface{} {
	out := map[string]interface{}{
		"pair":         info.Pair,
		"model_name":   info.ModelName,
		"size_bytes":   info.SizeBytes,
		"quantized":    info.Quantized,
		"converted_at": info.ConvertedAt.UTC().Format(time.RFC3339),
	}
	if !info.OptimizedAt.IsZero() {
		out["optimized_at"] = info.OptimizedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
