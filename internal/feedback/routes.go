package feedback

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OfonoA/campusGuide1/internal/db"
)

type submitRequest struct {
	MessageID       string `json:"message_id"`
	StudentID       string `json:"student_id"`
	Satisfactory    bool   `json:"satisfactory"`
	RequestInPerson bool   `json:"request_in_person"`
}

// RegisterRoutes mounts the feedback endpoint on the given router.
// Student identity arrives from the authentication layer in front of this
// service; here it is taken from the request body as-is.
func RegisterRoutes(r chi.Router, gate *Gate) {
	r.Post("/api/feedback", handleSubmit(gate))
}

func handleSubmit(gate *Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.MessageID == "" || req.StudentID == "" {
			http.Error(w, "message_id and student_id are required", http.StatusBadRequest)
			return
		}

		result, err := gate.Submit(r.Context(), req.MessageID, req.StudentID, req.Satisfactory, req.RequestInPerson)
		if err != nil {
			writeSubmitError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotRateable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrDuplicateFeedback), errors.Is(err, db.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
