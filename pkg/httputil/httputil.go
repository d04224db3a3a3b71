// Package httputil holds the JSON response and request helpers shared by the
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"quiz-engine/internal/models"
)

// Validator checks request structs against their validate tags.
var Validator = validator.New()

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteError maps service errors to status codes.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		WriteMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrAlreadyCompleted), errors.Is(err, models.ErrInvalidTransition):
		WriteMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrValidation):
		WriteMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Request failed: %v", err)
		WriteMessage(w, http.StatusInternalServerError, "request failed")
	}
}

// DecodeJSON reads the body into dst and runs struct validation on it.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	if err := Validator.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}

// PathUint parses a numeric mux route variable.
func PathUint(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", models.ErrValidation, name)
	}
	return uint(value), nil
}

// QueryLimit reads ?limit=. Values <= 0 mean no limit.
func QueryLimit(r *http.Request, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", models.ErrValidation)
	}
	return parsed, nil
}
