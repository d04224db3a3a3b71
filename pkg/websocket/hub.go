package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quiz-engine/internal/auth"
	"quiz-engine/internal/models"
)

// Message is the envelope for every event pushed to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	TypeParticipantUpdate   = "participant_update"
	TypeAttemptCompleted    = "attempt_completed"
	TypeLeaderboardUpdate   = "leaderboard_update"
	TypeAchievementUnlocked = "achievement_unlocked"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Hub fans quiz events out to the connections watching a quiz and to the
// connections of a single user.
type Hub struct {
	upgrader   websocket.Upgrader
	rooms      map[uint]map[*Client]bool
	byUser     map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	now        func() time.Time
}

// NewHub builds a hub. checkOrigin may be nil to accept every origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		rooms:      make(map[uint]map[*Client]bool),
		byUser:     make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	quizID uint
	userID uint
}

// Run owns room membership until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.quizID] == nil {
				h.rooms[client.quizID] = make(map[*Client]bool)
			}
			h.rooms[client.quizID][client] = true
			if h.byUser[client.userID] == nil {
				h.byUser[client.userID] = make(map[*Client]bool)
			}
			h.byUser[client.userID][client] = true
			count := len(h.rooms[client.quizID])
			h.mu.Unlock()

			log.Printf("Client %p (user %d) joined quiz %d. Watching: %d", client, client.userID, client.quizID, count)
			go h.BroadcastMessage(client.quizID, TypeParticipantUpdate, map[string]interface{}{"count": count})

		case client := <-h.unregister:
			h.mu.Lock()
			room, ok := h.rooms[client.quizID]
			if !ok || !room[client] {
				h.mu.Unlock()
				continue
			}
			delete(room, client)
			count := len(room)
			if count == 0 {
				delete(h.rooms, client.quizID)
			}
			if clients := h.byUser[client.userID]; clients != nil {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.byUser, client.userID)
				}
			}
			close(client.send)
			h.mu.Unlock()

			log.Printf("Client %p left quiz %d. Remaining: %d", client, client.quizID, count)
			if count > 0 {
				go h.BroadcastMessage(client.quizID, TypeParticipantUpdate, map[string]interface{}{"count": count})
			}

		case <-h.done:
			h.mu.Lock()
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = make(map[uint]map[*Client]bool)
			h.byUser = make(map[uint]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// queue must run under h.mu so Run cannot close a send channel mid-send.
func (h *Hub) queue(clients map[*Client]bool, message []byte) {
	for c := range clients {
		select {
		case c.send <- message:
		default:
			log.Printf("Send channel full for client %p; unregistering client", c)
			go h.drop(c)
		}
	}
}

func encode(messageType string, data interface{}) ([]byte, bool) {
	messageBytes, err := json.Marshal(Message{Type: messageType, Data: data})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return nil, false
	}
	return messageBytes, true
}

// BroadcastMessage sends an event to every connection watching the quiz.
func (h *Hub) BroadcastMessage(quizID uint, messageType string, data interface{}) {
	messageBytes, ok := encode(messageType, data)
	if !ok {
		return
	}

	h.mu.RLock()
	h.queue(h.rooms[quizID], messageBytes)
	h.mu.RUnlock()
}

// SendMessageToUser sends an event to every connection of one user.
func (h *Hub) SendMessageToUser(userID uint, messageType string, data interface{}) {
	messageBytes, ok := encode(messageType, data)
	if !ok {
		return
	}

	h.mu.RLock()
	h.queue(h.byUser[userID], messageBytes)
	h.mu.RUnlock()
}

// OnAttemptCompleted tells the user their result and the quiz room that its
// leaderboard changed.
func (h *Hub) OnAttemptCompleted(_ context.Context, attempt *models.Attempt) error {
	h.SendMessageToUser(attempt.UserID, TypeAttemptCompleted, attempt.ToDTO(h.now()))
	h.BroadcastMessage(attempt.QuizID, TypeLeaderboardUpdate, map[string]interface{}{
		"quiz_id": attempt.QuizID,
	})
	return nil
}

func (h *Hub) AchievementsUnlocked(userID uint, unlocks []models.UserAchievement) {
	for _, u := range unlocks {
		h.SendMessageToUser(userID, TypeAchievementUnlocked, map[string]interface{}{
			"achievement_id": u.AchievementID,
			"name":           u.Achievement.Name,
			"points_awarded": u.PointsAwarded,
			"earned_at":      u.EarnedAt,
		})
	}
}

// HandleWebSocket upgrades an authenticated request watching {quizID}.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	quizID, err := strconv.ParseUint(mux.Vars(r)["quizID"], 10, 64)
	if err != nil || quizID == 0 {
		http.Error(w, "Invalid quiz id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		quizID: uint(quizID),
		userID: userID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only keeps the connection alive; clients do not send events.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error writing message to client %p: %v", c, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
