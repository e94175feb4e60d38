package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kielo-labs/kielo/internal/model/convo"
	"github.com/kielo-labs/kielo/internal/service/session"
	"github.com/kielo-labs/kielo/pkg/utils"
)

// Dispatcher is the orchestrator surface the transport needs.
type Dispatcher interface {
	HandleEvent(ctx context.Context, ev convo.Event) (*convo.Reply, error)
}

// Handler is the webhook transport: it translates JSON payloads into
// inbound events and relays the orchestrator's reply.
type Handler struct {
	dispatcher Dispatcher
	sessions   *session.Store
}

// New creates the webhook handler.
func New(dispatcher Dispatcher, sessions *session.Store) *Handler {
	return &Handler{dispatcher: dispatcher, sessions: sessions}
}

// RegisterRoutes registers the transport routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/events", h.handleEvent)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
}

type eventPayload struct {
	SessionID   string            `json:"sessionId"`
	Kind        convo.Kind        `json:"kind"`
	Text        string            `json:"text"`
	Audio       []byte            `json:"audio"`
	AudioFormat string            `json:"audioFormat"`
	Photo       []convo.PhotoSize `json:"photo"`
}

type eventResponse struct {
	TurnID string       `json:"turnId"`
	Reply  *convo.Reply `json:"reply,omitempty"`
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	ev := convo.Event{
		SessionID:   payload.SessionID,
		Kind:        payload.Kind,
		Text:        payload.Text,
		Audio:       payload.Audio,
		AudioFormat: payload.AudioFormat,
		Photo:       payload.Photo,
	}

	reply, err := h.dispatcher.HandleEvent(r.Context(), ev)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, eventResponse{
		TurnID: uuid.NewString(),
		Reply:  reply,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, sess)
}
