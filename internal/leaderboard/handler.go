package leaderboard

import (
	"net/http"

	"quiz-engine/internal/auth"
	"quiz-engine/pkg/httputil"
)

const defaultLimit = 10

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := httputil.PathUint(r, "quizID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := httputil.QueryLimit(r, defaultLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.QuizLeaderboard(r.Context(), quizID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) MyRank(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	quizID, err := httputil.PathUint(r, "quizID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.UserRank(r.Context(), quizID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) Global(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryLimit(r, defaultLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.Global(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
