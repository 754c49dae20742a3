package reinforcement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/feedback"
	"github.com/OfonoA/campusGuide1/internal/vectordb"
)

// mockEmbedder returns deterministic embeddings and can be told to fail
// for texts containing a given substring, simulating a flaky provider.
type mockEmbedder struct {
	dims   int
	failOn string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, fmt.Errorf("embedding provider rejected text")
	}
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (m *mockEmbedder) Name() string { return "mock" }

type engineFixture struct {
	db       *db.DB
	engine   *Engine
	index    *vectordb.Index
	store    *feedback.Store
	embedder *mockEmbedder
}

// setupEngine builds an engine over an in-memory database and a seeded,
// ready index persisting under a temp dir.
func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	embedder := &mockEmbedder{dims: 64}
	index := vectordb.New(embedder, filepath.Join(t.TempDir(), "knowledge.gob.gz"))
	if err := index.LoadOrCreate(context.Background(), []string{"seed knowledge chunk"}); err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}

	return &engineFixture{
		db:       database,
		engine:   NewEngine(database, index),
		index:    index,
		store:    feedback.NewStore(database),
		embedder: embedder,
	}
}

// insertFeedback creates a pending knowledge candidate directly, the way a
// committed resolution leaves one behind.
func (f *engineFixture) insertFeedback(t *testing.T, id, answer, confidence string) {
	t.Helper()
	_, err := f.db.Exec(`
		INSERT INTO rl_feedback (id, validated_answer, confidence, ingested)
		VALUES (?, ?, ?, 0)`, id, answer, confidence)
	if err != nil {
		t.Fatalf("inserting feedback %s: %v", id, err)
	}
}

func (f *engineFixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}

func TestIngestFeedback(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	f.insertFeedback(t, "f1", "Transcripts are collected at the registrar desk in Block B.", "high")

	ok, err := f.engine.IngestFeedback(ctx, "f1")
	if err != nil {
		t.Fatalf("IngestFeedback: %v", err)
	}
	if !ok {
		t.Fatal("IngestFeedback returned false, want true")
	}

	fb, err := f.store.Get(ctx, "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !fb.Ingested {
		t.Error("feedback row not marked ingested")
	}

	if n := f.count(t, "SELECT count(*) FROM rag_documents WHERE source = 'ar_resolution'"); n != 1 {
		t.Errorf("rag_documents = %d, want 1", n)
	}
	if n := f.count(t, "SELECT count(*) FROM document_chunks"); n != 1 {
		t.Errorf("document_chunks = %d, want 1", n)
	}

	var embeddingID string
	if err := f.db.QueryRow("SELECT embedding_id FROM document_chunks").Scan(&embeddingID); err != nil {
		t.Fatalf("loading chunk: %v", err)
	}
	if embeddingID == "" {
		t.Error("chunk has empty embedding_id")
	}

	// Seed chunk plus the ingested one.
	if got := f.index.Count(); got != 2 {
		t.Errorf("index Count = %d, want 2", got)
	}

	results, err := f.index.Search(ctx, "registrar transcripts", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Content, "Transcripts") {
		t.Errorf("ingested knowledge not retrievable: %v", results)
	}
}

func TestIngestPartialEmbeddingFailure(t *testing.T) {
	f := setupEngine(t)
	f.embedder.failOn = "bbbb"
	ctx := context.Background()

	// Three paragraphs too large to pack together, so three chunks; the
	// middle one fails to embed.
	answer := strings.Repeat("a", 1400) + "\n\n" + strings.Repeat("b", 1400) + "\n\n" + strings.Repeat("c", 1400)
	f.insertFeedback(t, "f1", answer, "high")

	ok, err := f.engine.IngestFeedback(ctx, "f1")
	if err != nil {
		t.Fatalf("IngestFeedback: %v", err)
	}
	if !ok {
		t.Fatal("partial success must still count as ingested")
	}

	if n := f.count(t, "SELECT count(*) FROM document_chunks"); n != 2 {
		t.Errorf("document_chunks = %d, want 2 surviving chunks", n)
	}
	if got := f.index.Count(); got != 3 {
		t.Errorf("index Count = %d, want seed + 2 chunks", got)
	}

	fb, err := f.store.Get(ctx, "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !fb.Ingested {
		t.Error("feedback row not marked ingested after partial success")
	}
}

func TestIngestTotalEmbeddingFailure(t *testing.T) {
	f := setupEngine(t)
	f.embedder.failOn = "registrar"
	ctx := context.Background()
	f.insertFeedback(t, "f1", "Ask at the registrar desk.", "high")

	ok, err := f.engine.IngestFeedback(ctx, "f1")
	if err != nil {
		t.Fatalf("IngestFeedback: %v", err)
	}
	if ok {
		t.Fatal("total failure must not count as ingested")
	}

	fb, err := f.store.Get(ctx, "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fb.Ingested {
		t.Error("feedback row marked ingested with zero retrievable chunks")
	}

	// The anchoring document survives with no chunks; the row stays
	// eligible for the retry sweep.
	if n := f.count(t, "SELECT count(*) FROM rag_documents"); n != 1 {
		t.Errorf("rag_documents = %d, want 1", n)
	}
	if n := f.count(t, "SELECT count(*) FROM document_chunks"); n != 0 {
		t.Errorf("document_chunks = %d, want 0", n)
	}

	// After the provider recovers, a retry ingests the row.
	f.embedder.failOn = ""
	ok, err = f.engine.IngestFeedback(ctx, "f1")
	if err != nil {
		t.Fatalf("retry IngestFeedback: %v", err)
	}
	if !ok {
		t.Error("retry after provider recovery did not ingest")
	}
	if n := f.count(t, "SELECT count(*) FROM document_chunks"); n != 1 {
		t.Errorf("document_chunks after retry = %d, want 1", n)
	}
}

func TestIngestEmptyAnswerSkipped(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	f.insertFeedback(t, "f1", "   \n ", "high")

	ok, err := f.engine.IngestFeedback(ctx, "f1")
	if err != nil {
		t.Fatalf("IngestFeedback: %v", err)
	}
	if ok {
		t.Error("empty answer counted as ingested")
	}
	if n := f.count(t, "SELECT count(*) FROM rag_documents"); n != 0 {
		t.Errorf("rag_documents = %d, want 0 for empty answer", n)
	}
}

func TestIngestIndexUnavailableSkipped(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	// An index that was never loaded or created.
	index := vectordb.New(&mockEmbedder{dims: 64}, filepath.Join(t.TempDir(), "knowledge.gob.gz"))
	engine := NewEngine(database, index)

	if _, err := database.Exec(`
		INSERT INTO rl_feedback (id, validated_answer, confidence, ingested)
		VALUES ('f1', 'Visit Block B.', 'high', 0)`); err != nil {
		t.Fatalf("inserting feedback: %v", err)
	}

	ok, err := engine.IngestFeedback(context.Background(), "f1")
	if err != nil {
		t.Fatalf("IngestFeedback: %v", err)
	}
	if ok {
		t.Error("ingestion succeeded against an unavailable index")
	}

	var n int
	if err := database.QueryRow("SELECT count(*) FROM rag_documents").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rag_documents = %d, want 0 while index is down", n)
	}
}

func TestIngestAlreadyIngested(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	f.insertFeedback(t, "f1", "Visit Block B.", "high")
	if _, err := f.db.Exec("UPDATE rl_feedback SET ingested = 1 WHERE id = 'f1'"); err != nil {
		t.Fatalf("marking ingested: %v", err)
	}

	ok, err := f.engine.IngestFeedback(ctx, "f1")
	if err != nil {
		t.Fatalf("IngestFeedback: %v", err)
	}
	if ok {
		t.Error("already-ingested row processed again")
	}
	if n := f.count(t, "SELECT count(*) FROM rag_documents"); n != 0 {
		t.Errorf("rag_documents = %d, want 0", n)
	}
}

func TestIngestNotFound(t *testing.T) {
	f := setupEngine(t)

	_, err := f.engine.IngestFeedback(context.Background(), "missing")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("IngestFeedback missing: err = %v, want ErrNotFound", err)
	}
}

func TestSweep(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	f.insertFeedback(t, "f1", "Transcripts take 3 working days.", "high")
	// Empty answer is skipped; the medium candidate is never swept.
	f.insertFeedback(t, "f2", "   ", "high")
	f.insertFeedback(t, "f3", "Some unvetted bot answer.", "medium")

	report, err := f.engine.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", report.Scanned)
	}
	if report.Ingested != 1 {
		t.Errorf("Ingested = %d, want 1", report.Ingested)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if report.Chunks != 1 {
		t.Errorf("Chunks = %d, want 1", report.Chunks)
	}

	// The medium candidate must stay untouched.
	fb, err := f.store.Get(ctx, "f3")
	if err != nil {
		t.Fatalf("Get f3: %v", err)
	}
	if fb.Ingested {
		t.Error("medium-confidence row was ingested")
	}
}

func TestSweepIdempotent(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()
	f.insertFeedback(t, "f1", "Transcripts take 3 working days.", "high")

	if _, err := f.engine.Sweep(ctx); err != nil {
		t.Fatalf("first Sweep: %v", err)
	}

	report, err := f.engine.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if report.Scanned != 0 || report.Ingested != 0 {
		t.Errorf("second sweep report = %+v, want nothing to do", report)
	}

	// No duplicate documents or chunks.
	if n := f.count(t, "SELECT count(*) FROM rag_documents"); n != 1 {
		t.Errorf("rag_documents = %d, want 1", n)
	}
	if n := f.count(t, "SELECT count(*) FROM document_chunks"); n != 1 {
		t.Errorf("document_chunks = %d, want 1", n)
	}
	if got := f.index.Count(); got != 2 {
		t.Errorf("index Count = %d, want 2", got)
	}
}

func TestWorkerRequest(t *testing.T) {
	f := setupEngine(t)
	f.insertFeedback(t, "f1", "Transcripts take 3 working days.", "high")

	worker, err := NewWorker(f.engine, 1, 1)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer worker.Close()

	worker.Request("f1")

	// The pool runs in the background; poll for the outcome.
	var ingested bool
	for i := 0; i < 200 && !ingested; i++ {
		fb, err := f.store.Get(context.Background(), "f1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		ingested = fb.Ingested
		if !ingested {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if !ingested {
		t.Error("worker did not ingest the requested row")
	}
}
