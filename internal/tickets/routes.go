package tickets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OfonoA/campusGuide1/internal/db"
)

type actorRequest struct {
	ActorID string `json:"actor_id"`
}

type resolveRequest struct {
	ActorID           string `json:"actor_id"`
	ActionsTaken      string `json:"actions_taken"`
	ResolutionSummary string `json:"resolution_summary"`
}

// RegisterRoutes mounts the AR staff ticket endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, lifecycle *Lifecycle) {
	r.Route("/api/ar/tickets", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGet(store))
		r.Post("/{id}/claim", handleClaim(lifecycle))
		r.Post("/{id}/resolve", handleResolve(lifecycle))
		r.Post("/{id}/close", handleClose(lifecycle))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status(r.URL.Query().Get("status"))
		if status == "" {
			status = StatusOpen
		}

		list, err := store.ListByStatus(r.Context(), status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		t, err := store.Get(r.Context(), id)
		if err != nil {
			writeTicketError(w, err)
			return
		}
		updates, err := store.ListUpdates(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ticket": t, "updates": updates})
	}
}

func handleClaim(lifecycle *Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
			http.Error(w, "actor_id is required", http.StatusBadRequest)
			return
		}

		t, err := lifecycle.Claim(r.Context(), chi.URLParam(r, "id"), req.ActorID)
		if err != nil {
			writeTicketError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleResolve(lifecycle *Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
			http.Error(w, "actor_id is required", http.StatusBadRequest)
			return
		}

		result, err := lifecycle.Resolve(r.Context(), chi.URLParam(r, "id"), req.ActorID, req.ActionsTaken, req.ResolutionSummary)
		if err != nil {
			writeTicketError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleClose(lifecycle *Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
			http.Error(w, "actor_id is required", http.StatusBadRequest)
			return
		}

		t, err := lifecycle.Close(r.Context(), chi.URLParam(r, "id"), req.ActorID)
		if err != nil {
			writeTicketError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func writeTicketError(w http.ResponseWriter, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusConflict)
	case errors.Is(err, ErrEmptyResolution):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
