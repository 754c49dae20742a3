package reinforcement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OfonoA/campusGuide1/internal/db"
)

// RegisterRoutes mounts reinforcement admin endpoints on the given router.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Post("/api/admin/ingest-reinforcement", handleSweep(engine))
	r.Post("/api/admin/ingest-reinforcement/{feedbackID}", handleIngestSingle(engine))
}

func handleSweep(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := engine.Sweep(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleIngestSingle(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "feedbackID")

		ok, err := engine.IngestFeedback(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				http.Error(w, "feedback not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ingested": ok})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
