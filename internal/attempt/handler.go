// internal/attempt/handler.go
package attempt

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"quiz-engine/internal/auth"
	"quiz-engine/internal/models"
	"quiz-engine/pkg/httputil"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitRequest carries answers keyed by question id. JSON object keys are
// strings, so ids arrive as "12".
type SubmitRequest struct {
	Answers   map[string]string `json:"answers" validate:"required"`
	TimeTaken map[string]int    `json:"time_taken"`
}

func (req SubmitRequest) toSubmission() (Submission, error) {
	submission := Submission{
		Answers:   make(map[uint]string, len(req.Answers)),
		TimeTaken: make(map[uint]int, len(req.TimeTaken)),
	}
	for key, answer := range req.Answers {
		id, err := parseQuestionID(key)
		if err != nil {
			return Submission{}, err
		}
		submission.Answers[id] = answer
	}
	for key, seconds := range req.TimeTaken {
		id, err := parseQuestionID(key)
		if err != nil {
			return Submission{}, err
		}
		if seconds < 0 {
			seconds = 0
		}
		submission.TimeTaken[id] = seconds
	}
	return submission, nil
}

func parseQuestionID(key string) (uint, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not a question id", models.ErrValidation, key)
	}
	return uint(id), nil
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
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

	log.Printf("Starting quiz %d for user %d", quizID, userID)

	attempt, err := h.service.Start(r.Context(), userID, quizID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attempt.ToDTO(h.service.Now()))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	attempt, err := h.service.Get(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attempt.ToDTO(h.service.Now()))
}

func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	questions, reveal, err := h.service.Questions(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dtos := make([]models.QuestionDTO, len(questions))
	for i, q := range questions {
		dtos[i] = q.ToDTO(reveal)
	}
	httputil.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	attempt, err := h.service.Resume(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attempt.ToDTO(h.service.Now()))
}

// Submit expires attempts that ran out of time instead of grading them.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	attemptID := mux.Vars(r)["id"]

	var req SubmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	submission, err := req.toSubmission()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	current, err := h.service.Get(r.Context(), attemptID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expired, err := h.service.ExpireIfOverdue(r.Context(), current)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if expired {
		httputil.WriteError(w, fmt.Errorf("%w: attempt %s ran out of time", models.ErrInvalidTransition, attemptID))
		return
	}

	attempt, err := h.service.Submit(r.Context(), attemptID, userID, submission)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyCompleted) {
			log.Printf("Duplicate submission for attempt %s by user %d", attemptID, userID)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attempt.ToDTO(h.service.Now()))
}

func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	attempt, err := h.service.Abandon(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attempt.ToDTO(h.service.Now()))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	attempts, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := h.service.Now()
	dtos := make([]models.AttemptDTO, len(attempts))
	for i := range attempts {
		dtos[i] = attempts[i].ToDTO(now)
	}
	httputil.WriteJSON(w, http.StatusOK, dtos)
}
