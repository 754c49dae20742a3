// Package reinforcement promotes validated human resolutions into
// retrievable knowledge: it chunks the validated answer, embeds each chunk,
// persists chunk metadata and flips the feedback row's ingested flag once
// the knowledge is actually retrievable.
package reinforcement

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/OfonoA/campusGuide1/internal/chunker"
	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/feedback"
	"github.com/OfonoA/campusGuide1/internal/vectordb"
)

// Report summarizes one reinforcement sweep.
type Report struct {
	Scanned  int `json:"scanned"`
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Chunks   int `json:"chunks"`
}

// Engine orchestrates chunker, embedding provider, vector index and record
// store. Safe for concurrent use across different feedback rows; the
// ingested flag is the commit marker reconciling the two stores.
type Engine struct {
	db    *db.DB
	store *feedback.Store
	index *vectordb.Index
}

// NewEngine creates the ingestion engine.
func NewEngine(database *db.DB, index *vectordb.Index) *Engine {
	return &Engine{
		db:    database,
		store: feedback.NewStore(database),
		index: index,
	}
}

// Sweep scans for un-ingested high-confidence feedback and ingests each
// row independently. Unvetted medium rows are excluded so they never
// pollute the knowledge base. Row-scoped failures are logged and counted,
// never fatal to the sweep.
func (e *Engine) Sweep(ctx context.Context) (*Report, error) {
	pending, err := e.store.ListPending(ctx, feedback.ConfidenceHigh)
	if err != nil {
		return nil, err
	}

	report := &Report{Scanned: len(pending)}
	for _, f := range pending {
		ok, chunks, err := e.ingest(ctx, f.ID)
		if err != nil {
			log.Printf("reinforcement: feedback %s: %v", f.ID, err)
			report.Skipped++
			continue
		}
		report.Chunks += chunks
		if ok {
			report.Ingested++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

// IngestFeedback ingests a single feedback row, typically right after a
// ticket resolution. It returns true when the row was promoted and marked
// ingested. An empty validated answer or an unavailable index is a skip,
// not an error: the row stays eligible for a later sweep.
func (e *Engine) IngestFeedback(ctx context.Context, feedbackID string) (bool, error) {
	ok, _, err := e.ingest(ctx, feedbackID)
	return ok, err
}

func (e *Engine) ingest(ctx context.Context, feedbackID string) (bool, int, error) {
	// Re-read at execution time: a concurrent ingestion may have won
	// between sweep selection and now.
	f, err := e.store.Get(ctx, feedbackID)
	if err != nil {
		return false, 0, err
	}
	if f.Ingested {
		return false, 0, nil
	}

	answer := strings.TrimSpace(f.ValidatedAnswer)
	if answer == "" {
		log.Printf("reinforcement: feedback %s has empty validated answer, skipping", f.ID)
		return false, 0, nil
	}
	if !e.index.Ready() {
		log.Printf("reinforcement: vector index unavailable, leaving feedback %s pending", f.ID)
		return false, 0, nil
	}

	// The document anchors whatever chunks succeed. It is persisted before
	// any embedding call, so a document with zero chunks can outlive a
	// fully failed attempt; the unset ingested flag keeps the row
	// retryable and a later attempt anchors its chunks to a fresh document.
	docID := uuid.New().String()
	_, err = e.db.ExecContext(ctx, `
		INSERT INTO rag_documents (id, source, title, source_reference)
		VALUES (?, 'ar_resolution', ?, ?)`,
		docID, documentTitle(f), "TICKET-"+f.TicketID)
	if err != nil {
		return false, 0, fmt.Errorf("creating knowledge document: %w", err)
	}

	chunks := chunker.Split(answer, chunker.ReinforcementChunkSize, chunker.ReinforcementOverlap)
	added := 0
	for i, chunk := range chunks {
		embeddingID, err := e.index.AddText(ctx, chunk, map[string]string{
			vectordb.MetaSource:   "ar_resolution",
			vectordb.MetaTicketID: f.TicketID,
			vectordb.MetaDocument: docID,
		})
		if err != nil {
			log.Printf("reinforcement: embedding failed for feedback %s chunk %d/%d: %v", f.ID, i+1, len(chunks), err)
			continue
		}

		_, err = e.db.ExecContext(ctx, `
			INSERT INTO document_chunks (id, document_id, chunk_text, embedding_id)
			VALUES (?, ?, ?, ?)`,
			uuid.New().String(), docID, chunk, embeddingID)
		if err != nil {
			log.Printf("reinforcement: persisting chunk %d/%d for feedback %s failed: %v", i+1, len(chunks), f.ID, err)
			continue
		}
		added++
	}

	if added == 0 {
		// Nothing became retrievable; leave the flag unset for the retry sweep.
		return false, 0, nil
	}

	marked, err := e.store.MarkIngested(ctx, f.ID)
	if err != nil {
		return false, added, err
	}
	if !marked {
		log.Printf("reinforcement: feedback %s was ingested concurrently", f.ID)
	}
	return marked, added, nil
}

func documentTitle(f *feedback.Feedback) string {
	if f.TicketID != "" {
		return "AR Resolution for Ticket " + f.TicketID
	}
	return "AR Resolution " + f.ID
}
