package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"surveychat/internal/chat"
	"surveychat/internal/model"
)

// MessageType defines the type of WebSocket event
type MessageType string

const (
	MsgMessageAppended MessageType = "message_appended"
	MsgMessageUpdated  MessageType = "message_updated"
	MsgModeChanged     MessageType = "mode_changed"
	MsgAutoScroll      MessageType = "auto_scroll"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub manages WebSocket connections per conversation. It implements
// chat.Notifier so the engine can push transcript and mode events to every
// attached client.
type Hub struct {
	logger *zap.Logger

	// conversationID -> connections (a respondent may have several tabs)
	conns map[string]map[*Connection]bool
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection bound to one conversation
type Connection struct {
	ConversationID string
	Send           chan []byte
	Hub            *Hub
}

// BroadcastMessage is an event to fan out to one conversation's connections
type BroadcastMessage struct {
	ConversationID string
	Message        *Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.ConversationID] == nil {
				h.conns[conn.ConversationID] = make(map[*Connection]bool)
			}
			h.conns[conn.ConversationID][conn] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.String("conversation", conn.ConversationID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.ConversationID]; ok && set[conn] {
				delete(set, conn)
				close(conn.Send)
				if len(set) == 0 {
					delete(h.conns, conn.ConversationID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client disconnected", zap.String("conversation", conn.ConversationID))

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg.Message)
			h.mu.RLock()
			for conn := range h.conns[msg.ConversationID] {
				select {
				case conn.Send <- data:
				default:
					// Drop event if buffer full; a snapshot fetch recovers
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

func (h *Hub) emit(conversationID string, msgType MessageType, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		data, _ = json.Marshal(payload)
	}
	h.broadcast <- &BroadcastMessage{
		ConversationID: conversationID,
		Message:        &Message{Type: msgType, Payload: data},
	}
}

// MessageAppended implements chat.Notifier
func (h *Hub) MessageAppended(conversationID string, msg model.DisplayMessage) {
	h.emit(conversationID, MsgMessageAppended, msg)
}

// MessageUpdated implements chat.Notifier
func (h *Hub) MessageUpdated(conversationID string, msg model.DisplayMessage) {
	h.emit(conversationID, MsgMessageUpdated, msg)
}

// ModeChanged implements chat.Notifier
func (h *Hub) ModeChanged(conversationID string, st chat.ModeState) {
	h.emit(conversationID, MsgModeChanged, st)
}

// AutoScroll implements chat.Notifier
func (h *Hub) AutoScroll(conversationID string) {
	h.emit(conversationID, MsgAutoScroll, nil)
}
