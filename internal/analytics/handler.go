package analytics

import (
	"net/http"

	"quiz-engine/pkg/httputil"
)

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
	stats, err := h.service.QuizAnalytics(r.Context(), quizID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Student(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.PathUint(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := h.service.StudentAnalytics(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Teacher(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.PathUint(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := h.service.TeacherAnalytics(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
