package achievement

import (
	"net/http"

	"quiz-engine/internal/auth"
	"quiz-engine/pkg/httputil"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	unlocks, err := h.service.ListUnlocks(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, unlocks)
}

// EvaluateMine re-checks the caller's totals without a triggering attempt.
func (h *Handler) EvaluateMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	unlocks, err := h.service.Evaluate(r.Context(), userID, nil)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, unlocks)
}
