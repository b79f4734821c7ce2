package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/scoutline/internal/recommender"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now (should be restricted in production)
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is one connected websocket subscriber.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *TrainingHub
}

// TrainingHub fans training-completion notifications out to websocket
// clients, so a UI can refresh as soon as a retrain finishes instead of
// polling.
type TrainingHub struct {
	clients    map[*Client]bool
	events     <-chan recommender.TrainingEvent
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
	mutex      sync.RWMutex
}

// message is the wire envelope sent to clients.
type message struct {
	Type      string                    `json:"type"`
	Data      recommender.TrainingEvent `json:"data"`
	Timestamp time.Time                 `json:"timestamp"`
}

// NewTrainingHub creates a hub consuming the engine's training events.
func NewTrainingHub(events <-chan recommender.TrainingEvent, logger *logrus.Logger) *TrainingHub {
	return &TrainingHub{
		clients:    make(map[*Client]bool),
		events:     events,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run handles client registration and event broadcast. Call it in its own
// goroutine.
func (h *TrainingHub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.WithField("clients", h.clientCount()).Debug("Websocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()

		case event := <-h.events:
			h.broadcast(event)

		case <-ticker.C:
			h.pingClients()
		}
	}
}

func (h *TrainingHub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *TrainingHub) broadcast(event recommender.TrainingEvent) {
	msgType := "training_complete"
	if event.Error != "" {
		msgType = "training_failed"
	}
	payload, err := json.Marshal(message{
		Type:      msgType,
		Data:      event,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal training event")
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow client, drop the event rather than block the hub.
		}
	}
}

func (h *TrainingHub) pingClients() {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		if err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			h.logger.WithError(err).Debug("Websocket ping failed")
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription.
func (h *TrainingHub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 16),
		hub:  h,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readPump drains and discards inbound frames so that close and pong
// handling work; the hub is broadcast-only.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
