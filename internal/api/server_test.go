package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtforge/mtforge/internal/batch"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
)

func newTestServer(t *testing.T) (*Server, *sqlite.DB, *batch.Store, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store := batch.NewStore(filepath.Join(dir, "progress.json"))
	resultsPath := filepath.Join(dir, "test_results.json")
	return NewServer(db, store, resultsPath, "test"), db, store, resultsPath
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestVersion(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/version")
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["version"] != "test" {
		t.Errorf("version = %q", body["version"])
	}
}

func TestPairs(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/pairs")
	var body struct {
		Total int      `json:"total"`
		Pairs []string `json:"pairs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 42 || len(body.Pairs) != 42 {
		t.Errorf("total = %d, len = %d, want 42", body.Total, len(body.Pairs))
	}
}

func TestProgress_EmptyWorkspace(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/progress = %d", rec.Code)
	}
	var log domain.ProgressLog
	if err := json.NewDecoder(rec.Body).Decode(&log); err != nil {
		t.Fatal(err)
	}
	if len(log.Completed) != 0 {
		t.Errorf("Completed = %v, want empty", log.Completed)
	}
}

func TestProgress_ReflectsLog(t *testing.T) {
	s, _, store, _ := newTestServer(t)
	if err := store.Save(&domain.ProgressLog{
		TotalPairs: 42,
		Completed:  []string{"en-tr", "de-en"},
		Failed:     []domain.FailedPair{{Pair: "tr-en", Reason: domain.ReasonFetchFailed}},
	}); err != nil {
		t.Fatal(err)
	}

	rec := get(t, s.Handler(), "/api/progress")
	var log domain.ProgressLog
	if err := json.NewDecoder(rec.Body).Decode(&log); err != nil {
		t.Fatal(err)
	}
	if len(log.Completed) != 2 || log.TotalPairs != 42 {
		t.Errorf("log = %+v", log)
	}
	if len(log.Failed) != 1 || log.Failed[0].Reason != "fetch_failed" {
		t.Errorf("Failed = %+v", log.Failed)
	}
}

func TestArtifacts(t *testing.T) {
	s, db, _, _ := newTestServer(t)
	if err := db.UpsertArtifact(domain.ArtifactInfo{
		Pair:        "en-tr",
		ModelName:   "Helsinki-NLP/opus-mt-tc-big-en-tr",
		SizeBytes:   120 << 20,
		Quantized:   true,
		ConvertedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	rec := get(t, s.Handler(), "/api/artifacts")
	var body struct {
		Total     int                      `json:"total"`
		Artifacts []map[string]interface{} `json:"artifacts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 || body.Artifacts[0]["pair"] != "en-tr" {
		t.Errorf("body = %+v", body)
	}
	if body.Artifacts[0]["quantized"] != true {
		t.Error("quantized flag lost")
	}
	if _, present := body.Artifacts[0]["optimized_at"]; present {
		t.Error("optimized_at must be omitted for unoptimized pairs")
	}
}

func TestArtifact_NotFound(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/artifacts/en-tr")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing artifact = %d, want 404", rec.Code)
	}
}

func TestArtifact_BadPair(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/artifacts/nonsense")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET invalid pair = %d, want 400", rec.Code)
	}
}

func TestResults_NotRecorded(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/results")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/results = %d, want 404 before any run", rec.Code)
	}
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics = %d, want 404 when disabled", rec.Code)
	}
}

func TestMetrics_Enabled(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	s.EnableMetrics()
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200 when enabled", rec.Code)
	}
}
