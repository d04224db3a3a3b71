package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/models"
)

func TestWriteErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: attempt x", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: attempt x", models.ErrAlreadyCompleted), http.StatusConflict},
		{models.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("%w: bad", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, tt.err)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Error)
	}
}

func TestDecodeJSONValidates(t *testing.T) {
	type request struct {
		Username string `json:"username" validate:"required"`
	}

	var ok request
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"ana"}`))
	require.NoError(t, DecodeJSON(r, &ok))
	assert.Equal(t, "ana", ok.Username)

	var missing request
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	assert.ErrorIs(t, DecodeJSON(r, &missing), models.ErrValidation)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.ErrorIs(t, DecodeJSON(r, &missing), models.ErrValidation)
}

func TestPathUintAndQueryLimit(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil), map[string]string{"quizID": "42"})
	id, err := PathUint(r, "quizID")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	limit, err := QueryLimit(r, 10)
	require.NoError(t, err)
	assert.Equal(t, -1, limit)

	bad := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/?limit=x", nil), map[string]string{"quizID": "abc"})
	_, err = PathUint(bad, "quizID")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = QueryLimit(bad, 10)
	assert.ErrorIs(t, err, models.ErrValidation)

	limit, err = QueryLimit(httptest.NewRequest(http.MethodGet, "/", nil), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
}
