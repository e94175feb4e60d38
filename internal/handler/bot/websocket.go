package bot

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// WebSocketHandler is the interactive transport: one connection per
// session, events in, replies out.
type WebSocketHandler struct {
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler creates the websocket transport.
func NewWebSocketHandler(dispatcher Dispatcher) *WebSocketHandler {
	return &WebSocketHandler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes registers the websocket route.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Kind        convo.Kind        `json:"kind"`
	Text        string            `json:"text,omitempty"`
	Audio       []byte            `json:"audio,omitempty"`
	AudioFormat string            `json:"audioFormat,omitempty"`
	Photo       []convo.PhotoSize `json:"photo,omitempty"`
	Timestamp   int64             `json:"timestamp,omitempty"`
}

type outgoingMessage struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId,omitempty"`
	Reply     *convo.Reply `json:"reply,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: "invalid message"})
			continue
		}

		ev := convo.Event{
			SessionID:   sessionID,
			Kind:        msg.Kind,
			Text:        msg.Text,
			Audio:       msg.Audio,
			AudioFormat: msg.AudioFormat,
			Photo:       msg.Photo,
		}

		reply, err := h.dispatcher.HandleEvent(r.Context(), ev)
		if err != nil {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: err.Error()})
			continue
		}
		if reply == nil {
			// Unmatched event: deliberately no reply.
			continue
		}

		h.send(conn, outgoingMessage{Type: "reply", SessionID: sessionID, Reply: reply})
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
