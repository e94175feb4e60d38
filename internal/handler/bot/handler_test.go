package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kielo-labs/kielo/internal/model/convo"
	"github.com/kielo-labs/kielo/internal/service/session"
)

type stubDispatcher struct {
	reply *convo.Reply
	err   error
	last  convo.Event
}

func (s *stubDispatcher) HandleEvent(_ context.Context, ev convo.Event) (*convo.Reply, error) {
	s.last = ev
	return s.reply, s.err
}

func setupRouter(dispatcher *stubDispatcher) (*chi.Mux, *session.Store) {
	store := session.NewStore()
	handler := New(dispatcher, store)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func TestHandleEventRelaysReply(t *testing.T) {
	dispatcher := &stubDispatcher{reply: &convo.Reply{Text: "*[Bot]:* Moi!"}}
	r, _ := setupRouter(dispatcher)

	payload, _ := json.Marshal(map[string]string{
		"sessionId": "u1",
		"kind":      "text",
		"text":      "hello",
	})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if dispatcher.last.SessionID != "u1" || dispatcher.last.Kind != convo.KindText {
		t.Fatalf("event not translated: %+v", dispatcher.last)
	}

	var body eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if body.Reply == nil || body.Reply.Text != "*[Bot]:* Moi!" {
		t.Fatalf("unexpected reply: %+v", body.Reply)
	}
	if body.TurnID == "" {
		t.Fatal("expected a turn id")
	}
}

func TestHandleEventMissingSessionID(t *testing.T) {
	r, _ := setupRouter(&stubDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{"kind":"text","text":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandleEventInvalidBody(t *testing.T) {
	r, _ := setupRouter(&stubDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{not json`)))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter(&stubDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/sessions/unknown", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetSessionSnapshot(t *testing.T) {
	r, store := setupRouter(&stubDispatcher{})
	if err := store.WithSession(context.Background(), "u1", func(s *convo.Session) error {
		s.State = convo.StateChat
		return nil
	}); err != nil {
		t.Fatalf("WithSession err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/u1", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var sess convo.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session err: %v", err)
	}
	if sess.ID != "u1" || sess.State != convo.StateChat {
		t.Fatalf("unexpected snapshot: %+v", sess)
	}
}
