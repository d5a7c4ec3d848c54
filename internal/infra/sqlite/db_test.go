package sqlite

import (
	"strings"
	"testing"
	"time"

	"github.com/mtforge/mtforge/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleArtifact(pair string) domain.ArtifactInfo {
	return domain.ArtifactInfo{
		Pair:        pair,
		ModelName:   "Helsinki-NLP/opus-mt-" + pair,
		SizeBytes:   75 * 1024 * 1024,
		Quantized:   true,
		ConvertedAt: time.Now(),
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	db := newTestDB(t)

	// The driver takes pragmas as _pragma=name(value); a wrong DSN
	// spelling is ignored silently, so check the mode actually stuck.
	var mode string
	if err := db.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := db.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestUpsertAndGetArtifact(t *testing.T) {
	db := newTestDB(t)

	if err := db.UpsertArtifact(sampleArtifact("en-tr")); err != nil {
		t.Fatalf("UpsertArtifact() error: %v", err)
	}

	got, err := db.GetArtifact("en-tr")
	if err != nil {
		t.Fatalf("GetArtifact() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetArtifact() = nil, want row")
	}
	if got.ModelName != "Helsinki-NLP/opus-mt-en-tr" {
		t.Errorf("ModelName = %q", got.ModelName)
	}
	if !got.Quantized {
		t.Error("Quantized should be true")
	}
	if !got.OptimizedAt.IsZero() {
		t.Error("OptimizedAt should be zero before optimize")
	}
}

func TestGetArtifact_NotFound(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetArtifact("xx-yy")
	if err != nil {
		t.Fatalf("GetArtifact() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetArtifact() = %v, want nil", got)
	}
}

func TestUpsertArtifact_Overwrites(t *testing.T) {
	db := newTestDB(t)

	a := sampleArtifact("de-en")
	if err := db.UpsertArtifact(a); err != nil {
		t.Fatal(err)
	}
	a.SizeBytes = 42
	if err := db.UpsertArtifact(a); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetArtifact("de-en")
	if err != nil || got == nil {
		t.Fatalf("GetArtifact() = %v, %v", got, err)
	}
	if got.SizeBytes != 42 {
		t.Errorf("SizeBytes = %d, want 42", got.SizeBytes)
	}
}

func TestListArtifacts_SortedByPair(t *testing.T) {
	db := newTestDB(t)

	for _, pair := range []string{"tr-en", "de-en", "en-tr"} {
		if err := db.UpsertArtifact(sampleArtifact(pair)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.ListArtifacts()
	if err != nil {
		t.Fatalf("ListArtifacts() error: %v", err)
	}
	want := []string{"de-en", "en-tr", "tr-en"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Pair != w {
			t.Errorf("artifact[%d].Pair = %q, want %q", i, got[i].Pair, w)
		}
	}
}

func TestDeleteArtifact(t *testing.T) {
	db := newTestDB(t)

	if err := db.UpsertArtifact(sampleArtifact("en-de")); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteArtifact("en-de"); err != nil {
		t.Fatalf("DeleteArtifact() error: %v", err)
	}
	if err := db.DeleteArtifact("en-de"); err != domain.ErrArtifactNotFound {
		t.Errorf("second delete = %v, want ErrArtifactNotFound", err)
	}
}

func TestMarkOptimized(t *testing.T) {
	db := newTestDB(t)

	if err := db.UpsertArtifact(sampleArtifact("fr-en")); err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	if err := db.MarkOptimized("fr-en", 1234, at); err != nil {
		t.Fatalf("MarkOptimized() error: %v", err)
	}

	got, err := db.GetArtifact("fr-en")
	if err != nil || got == nil {
		t.Fatalf("GetArtifact() = %v, %v", got, err)
	}
	if got.SizeBytes != 1234 {
		t.Errorf("SizeBytes = %d, want 1234", got.SizeBytes)
	}
	if got.OptimizedAt.IsZero() {
		t.Error("OptimizedAt should be set")
	}
}

func TestTotalSizeBytes(t *testing.T) {
	db := newTestDB(t)

	// Empty table sums to zero, not an error.
	total, err := db.TotalSizeBytes()
	if err != nil {
		t.Fatalf("TotalSizeBytes() error: %v", err)
	}
	if total != 0 {
		t.Errorf("empty total = %d, want 0", total)
	}

	a := sampleArtifact("en-tr")
	a.SizeBytes = 100
	b := sampleArtifact("tr-en")
	b.SizeBytes = 50
	for _, info := range []domain.ArtifactInfo{a, b} {
		if err := db.UpsertArtifact(info); err != nil {
			t.Fatal(err)
		}
	}

	total, err = db.TotalSizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}
}
