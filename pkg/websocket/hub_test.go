package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/auth"
	"quiz-engine/internal/models"
)

// asUser stands in for the JWT middleware.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseUint(r.URL.Query().Get("user"), 10, 64)
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), uint(id))))
	})
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()

	router := mux.NewRouter()
	router.Handle("/ws/quizzes/{quizID}", asUser(http.HandlerFunc(hub.HandleWebSocket)))
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, quizID, userID string) *gorillaws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quizzes/" + quizID + "?user=" + userID
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorillaws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestAttemptCompletedReachesUserAndRoom(t *testing.T) {
	hub, server := newTestServer(t)

	owner := dial(t, server, "3", "7")
	assert.Equal(t, TypeParticipantUpdate, readMessage(t, owner).Type)

	watcher := dial(t, server, "3", "8")
	assert.Equal(t, TypeParticipantUpdate, readMessage(t, watcher).Type)
	assert.Equal(t, TypeParticipantUpdate, readMessage(t, owner).Type)

	end := time.Now().UTC()
	err := hub.OnAttemptCompleted(context.Background(), &models.Attempt{
		ID:        "a1",
		UserID:    7,
		QuizID:    3,
		Status:    models.AttemptCompleted,
		Score:     4,
		StartTime: end.Add(-time.Minute),
		EndTime:   &end,
	})
	require.NoError(t, err)

	first := readMessage(t, owner)
	assert.Equal(t, TypeAttemptCompleted, first.Type)
	assert.Equal(t, TypeLeaderboardUpdate, readMessage(t, owner).Type)

	update := readMessage(t, watcher)
	assert.Equal(t, TypeLeaderboardUpdate, update.Type)
	data, ok := update.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), data["quiz_id"])
}

func TestAchievementsUnlockedGoOnlyToUser(t *testing.T) {
	hub, server := newTestServer(t)

	owner := dial(t, server, "1", "5")
	assert.Equal(t, TypeParticipantUpdate, readMessage(t, owner).Type)

	hub.AchievementsUnlocked(5, []models.UserAchievement{{
		AchievementID: 2,
		Achievement:   models.Achievement{Name: "First Steps"},
		PointsAwarded: 10,
	}})

	msg := readMessage(t, owner)
	assert.Equal(t, TypeAchievementUnlocked, msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, "First Steps", data["name"])

	// no connection for this user: nothing to do, nothing to panic about
	hub.AchievementsUnlocked(99, []models.UserAchievement{{AchievementID: 1}})
}

func TestHandleWebSocketRejectsBadQuizID(t *testing.T) {
	_, server := newTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quizzes/abc?user=1"
	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
