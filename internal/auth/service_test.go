package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/account"
	"quiz-engine/internal/models"
	"quiz-engine/internal/testutil"
)

const secret = "test-secret"

func TestRegisterLoginAndMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	service := NewService(account.NewRepository(db), secret)
	ctx := context.Background()

	user := &models.User{Username: "ada", Password: "lovelace"}
	require.NoError(t, service.Register(ctx, user))
	assert.NotEqual(t, "lovelace", user.Password)
	assert.Equal(t, "ada", user.DisplayName)

	err := service.Register(ctx, &models.User{Username: "ada", Password: "other1"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = service.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := service.Login(ctx, "ada", "lovelace")
	require.NoError(t, err)

	userID, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = ParseToken(token, "another-secret")
	assert.Error(t, err)

	var seen uint
	protected := JWTMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me/attempts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, seen)

	seen = 0
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/quizzes/1?token="+token, nil))
	assert.Equal(t, user.ID, seen)

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/me/attempts", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}
