package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// GlobalHub - единственный экземпляр хаба для всего приложения
var GlobalHub = NewEventHub()

// ChangeEvent — уведомление об изменении сущности в рамках scope.
// Клиент не получает сами данные: получив событие, он перечитывает
// список целиком ("последняя полная перезагрузка выигрывает").
type ChangeEvent struct {
	Type     string `json:"type"`
	Scope    string `json:"scope"`
	Entity   string `json:"entity"`
	EntityID uint   `json:"entityId"`
}

// subscriptionMessage — команда клиента на подписку или отписку от scope
// вида "post:<id>" или "poll:<id>".
type subscriptionMessage struct {
	Action string `json:"action"`
	Scope  string `json:"scope"`
}

type EventClient struct {
	hub    *EventHub
	conn   *websocket.Conn
	send   chan []byte
	scopes map[string]bool
}

type EventHub struct {
	clients    map[*EventClient]bool
	register   chan *EventClient
	unregister chan *EventClient
	mu         sync.Mutex
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:    make(map[*EventClient]bool),
		register:   make(chan *EventClient),
		unregister: make(chan *EventClient),
	}
}

func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("Event client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Event client unregistered")
		}
	}
}

// BroadcastChange отправляет событие всем клиентам, подписанным на scope.
func (h *EventHub) BroadcastChange(scope, eventType, entity string, entityID uint) {
	event := ChangeEvent{
		Type:     eventType,
		Scope:    scope,
		Entity:   entity,
		EntityID: entityID,
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal change event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.scopes[scope] {
			continue
		}
		select {
		case client.send <- messageBytes:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *EventHub) setSubscription(client *EventClient, scope string, subscribed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subscribed {
		client.scopes[scope] = true
	} else {
		delete(client.scopes, scope)
	}
}

func (c *EventClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Unexpected websocket close error", "error", err)
			}
			break
		}

		var msg subscriptionMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Error("Error unmarshaling subscription message", "error", err)
			continue
		}

		switch msg.Action {
		case "subscribe":
			c.hub.setSubscription(c, msg.Scope, true)
		case "unsubscribe":
			c.hub.setSubscription(c, msg.Scope, false)
		default:
			slog.Warn("Unknown subscription action", "action", msg.Action)
		}
	}
}

func (c *EventClient) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			slog.Error("Failed to write event to websocket", "error", err)
			return
		}
	}
}

// EventsWSEndpoint апгрейдит соединение и запускает клиентские горутины.
func EventsWSEndpoint(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := &EventClient{
		hub:    GlobalHub,
		conn:   conn,
		send:   make(chan []byte, 16),
		scopes: make(map[string]bool),
	}
	GlobalHub.register <- client

	go client.writePump()
	go client.readPump()
}
