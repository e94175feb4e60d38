package dialog_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kielo-labs/kielo/internal/dialog"
	"github.com/kielo-labs/kielo/internal/model/convo"
	"github.com/kielo-labs/kielo/internal/service/session"
)

type completionCall struct {
	system  string
	history []convo.Message
	query   string
}

type fakeCompleter struct {
	mu    sync.Mutex
	calls []completionCall
	reply func(system string, history []convo.Message, query string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, system string, history []convo.Message, query string) (string, error) {
	f.mu.Lock()
	copied := make([]convo.Message, len(history))
	copy(copied, history)
	f.calls = append(f.calls, completionCall{system: system, history: copied, query: query})
	f.mu.Unlock()

	if f.reply != nil {
		return f.reply(system, history, query)
	}
	return "ok", nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompleter) lastCall() completionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

type fakeCaptioner struct {
	caption string
	err     error
}

func (f *fakeCaptioner) Caption(context.Context, []byte) (string, error) {
	return f.caption, f.err
}

type fakeImageGen struct {
	image convo.Image
	err   error
}

func (f *fakeImageGen) Generate(context.Context, string) (convo.Image, error) {
	return f.image, f.err
}

type fakeFetcher struct {
	mu      sync.Mutex
	data    []byte
	lastURL string
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.lastURL = url
	f.mu.Unlock()
	return f.data, f.err
}

// quizCompleter scripts the three completion calls of a vocabulary round
// plus grading, keyed off the system prompt.
func quizCompleter(noun, translated string) *fakeCompleter {
	return &fakeCompleter{
		reply: func(system string, _ []convo.Message, query string) (string, error) {
			switch {
			case strings.Contains(system, "concrete English noun"):
				return noun, nil
			case strings.HasPrefix(system, "Translate the word to"):
				return translated, nil
			case strings.Contains(system, "grading"):
				return "Correct!", nil
			default:
				return "ok", nil
			}
		},
	}
}

type testEnv struct {
	orch     *dialog.Orchestrator
	store    *session.Store
	complete *fakeCompleter
	fetch    *fakeFetcher
}

func newTestEnv(complete *fakeCompleter) *testEnv {
	store := session.NewStore()
	fetch := &fakeFetcher{data: []byte("image-bytes")}
	orch := dialog.New(dialog.Deps{
		Sessions:      store,
		Complete:      complete,
		Transcribe:    &fakeTranscriber{text: "hyvää huomenta"},
		Caption:       &fakeCaptioner{caption: "a dog on a beach"},
		GenerateImage: &fakeImageGen{image: convo.Image{URL: "https://img.example/1.png"}},
		Fetch:         fetch,
	}, dialog.Options{TeacherName: "Anna", LearningLanguage: "Finnish"})
	return &testEnv{orch: orch, store: store, complete: complete, fetch: fetch}
}

func (e *testEnv) send(t *testing.T, id string, kind convo.Kind, text string) *convo.Reply {
	t.Helper()
	reply, err := e.orch.HandleEvent(context.Background(), convo.Event{SessionID: id, Kind: kind, Text: text})
	if err != nil {
		t.Fatalf("HandleEvent(%q) err: %v", text, err)
	}
	return reply
}

func (e *testEnv) state(t *testing.T, id string) convo.Session {
	t.Helper()
	sess, err := e.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get session err: %v", err)
	}
	return sess
}

func TestStartShowsModeMenu(t *testing.T) {
	env := newTestEnv(&fakeCompleter{})

	reply := env.send(t, "u1", convo.KindCommand, "/start")
	if reply == nil {
		t.Fatal("expected a menu reply")
	}
	if !strings.Contains(reply.Text, "Choose the chat mode") {
		t.Fatalf("unexpected menu text: %q", reply.Text)
	}
	if len(reply.Keyboard) != 4 {
		t.Fatalf("expected 4 mode options, got %v", reply.Keyboard)
	}

	if got := env.state(t, "u1").State; got != convo.StateInitial {
		t.Fatalf("expected initial state, got %s", got)
	}
}

func TestTranslationScenario(t *testing.T) {
	env := newTestEnv(&fakeCompleter{reply: func(_ string, _ []convo.Message, _ string) (string, error) {
		return "hyvää huomenta", nil
	}})

	env.send(t, "u1", convo.KindText, "Translation")
	if got := env.state(t, "u1").State; got != convo.StateLanguagePick {
		t.Fatalf("expected language_pick, got %s", got)
	}

	env.send(t, "u1", convo.KindText, "🇫🇮 Finnish")
	sess := env.state(t, "u1")
	if sess.State != convo.StateTextToTranslate {
		t.Fatalf("expected text_to_translate, got %s", sess.State)
	}
	if sess.TranslationLanguage != "Finnish" {
		t.Fatalf("expected canonical language, got %q", sess.TranslationLanguage)
	}

	reply := env.send(t, "u1", convo.KindText, "good morning")
	if !strings.Contains(reply.Text, "hyvää huomenta") {
		t.Fatalf("unexpected translation reply: %q", reply.Text)
	}

	call := env.complete.lastCall()
	if !strings.Contains(call.system, "Finnish") {
		t.Fatalf("system prompt should name the language, got %q", call.system)
	}
	if call.query != "good morning" {
		t.Fatalf("unexpected query: %q", call.query)
	}

	if got := env.state(t, "u1").State; got != convo.StateTextToTranslate {
		t.Fatalf("translation should loop, got %s", got)
	}
}

func TestTranslationIsStatelessPerCall(t *testing.T) {
	env := newTestEnv(&fakeCompleter{})

	env.send(t, "u1", convo.KindText, "Translation")
	env.send(t, "u1", convo.KindText, "English")
	env.send(t, "u1", convo.KindText, "ensimmäinen")
	env.send(t, "u1", convo.KindText, "toinen")

	first := env.complete.calls[0]
	second := env.complete.calls[1]
	if len(first.history) != 0 || len(second.history) != 0 {
		t.Fatal("translation calls must not carry history")
	}
	if second.query != "toinen" || strings.Contains(second.system, "ensimmäinen") {
		t.Fatal("second translation call referenced the first call's content")
	}
}

func TestChatAppendsHistory(t *testing.T) {
	env := newTestEnv(&fakeCompleter{reply: func(_ string, _ []convo.Message, _ string) (string, error) {
		return "Moi!", nil
	}})

	env.send(t, "u1", convo.KindText, "Generic Chat")
	reply := env.send(t, "u1", convo.KindText, "hello Anna")
	if !strings.HasPrefix(reply.Text, "*[Bot]:*") {
		t.Fatalf("expected bot-prefixed reply, got %q", reply.Text)
	}

	sess := env.state(t, "u1")
	if len(sess.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(sess.History))
	}
	if sess.History[0].Role != convo.RoleUser || sess.History[1].Role != convo.RoleAssistant {
		t.Fatalf("unexpected history roles: %+v", sess.History)
	}

	env.send(t, "u1", convo.KindText, "how are you?")
	call := env.complete.lastCall()
	if len(call.history) != 2 {
		t.Fatalf("second turn should see prior history, got %d entries", len(call.history))
	}
}

func TestChatAdapterErrorLeavesSessionUntouched(t *testing.T) {
	boom := errors.New("quota exceeded")
	failing := true
	env := newTestEnv(&fakeCompleter{reply: func(_ string, _ []convo.Message, _ string) (string, error) {
		if failing {
			return "", boom
		}
		return "Moi!", nil
	}})

	env.send(t, "u1", convo.KindText, "Generic Chat")
	reply := env.send(t, "u1", convo.KindText, "hello")
	if reply == nil || !strings.Contains(reply.Text, "Sorry") {
		t.Fatalf("expected apologetic reply, got %+v", reply)
	}

	sess := env.state(t, "u1")
	if sess.State != convo.StateChat {
		t.Fatalf("failed turn must not change state, got %s", sess.State)
	}
	if len(sess.History) != 0 {
		t.Fatalf("failed turn must not append history, got %d entries", len(sess.History))
	}

	// The session stays usable and the retry appends exactly one pair.
	failing = false
	env.send(t, "u1", convo.KindText, "hello")
	if got := len(env.state(t, "u1").History); got != 2 {
		t.Fatalf("expected exactly one user/assistant pair after retry, got %d", got)
	}
}

func TestQuitEndsSessionUntilStart(t *testing.T) {
	env := newTestEnv(&fakeCompleter{})

	env.send(t, "u1", convo.KindText, "Generic Chat")
	reply := env.send(t, "u1", convo.KindCommand, "/quit")
	if reply == nil || !strings.Contains(reply.Text, "quit") {
		t.Fatalf("expected quit reply, got %+v", reply)
	}
	if got := env.state(t, "u1").State; got != convo.StateEnded {
		t.Fatalf("expected ended, got %s", got)
	}

	// Everything except /start is ignored now.
	if reply := env.send(t, "u1", convo.KindText, "hello?"); reply != nil {
		t.Fatalf("ended session must not reply, got %+v", reply)
	}
	if reply := env.send(t, "u1", convo.KindCommand, "/menu"); reply != nil {
		t.Fatalf("/menu must not revive an ended session, got %+v", reply)
	}
	if env.complete.callCount() != 0 {
		t.Fatal("no handler should have run after /quit")
	}

	env.send(t, "u1", convo.KindCommand, "/start")
	if got := env.state(t, "u1").State; got != convo.StateInitial {
		t.Fatalf("/start should revive the session, got %s", got)
	}
}

func TestMenuResetClearsModeFields(t *testing.T) {
	env := newTestEnv(&fakeCompleter{})

	env.send(t, "u1", convo.KindText, "Translation")
	env.send(t, "u1", convo.KindText, "Italian")
	if env.state(t, "u1").TranslationLanguage == "" {
		t.Fatal("setup failed: language not set")
	}

	first := env.send(t, "u1", convo.KindCommand, "/menu")
	second := env.send(t, "u1", convo.KindCommand, "/menu")

	sess := env.state(t, "u1")
	if sess.State != convo.StateInitial {
		t.Fatalf("expected initial, got %s", sess.State)
	}
	if sess.TranslationLanguage != "" || sess.VocabWord != "" {
		t.Fatalf("reset must clear mode fields, got %+v", sess)
	}
	if first.Text != second.Text {
		t.Fatalf("repeated /menu should be idempotent: %q vs %q", first.Text, second.Text)
	}
}

func TestUnmatchedEventIsIgnored(t *testing.T) {
	env := newTestEnv(&fakeCompleter{})

	env.send(t, "u1", convo.KindCommand, "/start")
	reply := env.send(t, "u1", convo.KindText, "something unrelated")
	if reply != nil {
		t.Fatalf("unmatched event must produce no reply, got %+v", reply)
	}
	if got := env.state(t, "u1").State; got != convo.StateInitial {
		t.Fatalf("unmatched event must not change state, got %s", got)
	}
}

func TestVocabQuizRoundTrip(t *testing.T) {
	env := newTestEnv(quizCompleter("dog", "koira"))

	env.send(t, "u1", convo.KindText, "Vocabulary Quiz")
	if got := env.state(t, "u1").State; got != convo.StateStartVocabPic {
		t.Fatalf("expected start_vocab_pic, got %s", got)
	}

	reply := env.send(t, "u1", convo.KindText, "Ready")
	if reply.Image == nil || reply.Image.URL == "" {
		t.Fatalf("round reply should carry the generated picture, got %+v", reply)
	}
	sess := env.state(t, "u1")
	if sess.State != convo.StateAnswerVocabPic {
		t.Fatalf("expected answer_vocab_pic, got %s", sess.State)
	}
	if sess.VocabWord != "koira" {
		t.Fatalf("expected answer key koira, got %q", sess.VocabWord)
	}

	reply = env.send(t, "u1", convo.KindText, "koira")
	if !strings.Contains(reply.Text, "Correct!") {
		t.Fatalf("verdict should be relayed verbatim, got %q", reply.Text)
	}
	sess = env.state(t, "u1")
	if sess.State != convo.StateVocabPic {
		t.Fatalf("expected vocab_pic between rounds, got %s", sess.State)
	}
	if sess.VocabWord != "" {
		t.Fatalf("answer key must be cleared after grading, got %q", sess.VocabWord)
	}

	// Acknowledgement loops into the next round.
	env.send(t, "u1", convo.KindText, "Yes")
	if got := env.state(t, "u1").State; got != convo.StateAnswerVocabPic {
		t.Fatalf("expected a new round, got %s", got)
	}
}

func TestVocabWordIsolatedBetweenSessions(t *testing.T) {
	words := map[string]string{"session-a": "koira", "session-b": "talo"}
	var mu sync.Mutex
	graded := map[string]string{}

	completer := &fakeCompleter{}
	completer.reply = func(system string, _ []convo.Message, query string) (string, error) {
		switch {
		case strings.Contains(system, "concrete English noun"):
			return "noun", nil
		case strings.HasPrefix(system, "Translate the word to"):
			// The word depends on which session's round is running; encode
			// it through the query set below.
			return query, nil
		case strings.Contains(system, "grading"):
			return system, nil
		default:
			return "ok", nil
		}
	}

	env := newTestEnv(completer)

	var wg sync.WaitGroup
	for id, word := range words {
		wg.Add(1)
		go func(id, word string) {
			defer wg.Done()
			ctx := context.Background()
			send := func(kind convo.Kind, text string) *convo.Reply {
				reply, err := env.orch.HandleEvent(ctx, convo.Event{SessionID: id, Kind: kind, Text: text})
				if err != nil {
					t.Errorf("HandleEvent err for %s: %v", id, err)
				}
				return reply
			}
			send(convo.KindText, "Vocabulary Quiz")
			send(convo.KindText, "Ready")

			// Overwrite the answer key deterministically for this session,
			// then grade and record which word the judge prompt carried.
			if err := env.store.WithSession(ctx, id, func(s *convo.Session) error {
				s.VocabWord = word
				return nil
			}); err != nil {
				t.Errorf("WithSession err for %s: %v", id, err)
			}
			reply := send(convo.KindText, "my guess")
			mu.Lock()
			graded[id] = reply.Text
			mu.Unlock()
		}(id, word)
	}
	wg.Wait()

	for id, word := range words {
		if !strings.Contains(graded[id], fmt.Sprintf("%q", word)) {
			t.Fatalf("session %s graded against the wrong word: %q", id, graded[id])
		}
	}
}

func TestCaptionCommandAndLoop(t *testing.T) {
	env := newTestEnv(&fakeCompleter{reply: func(system string, _ []convo.Message, _ string) (string, error) {
		if strings.Contains(system, "ENG:") {
			return "ENG: a dog on a beach \n FI: koira rannalla \n IT: un cane in spiaggia", nil
		}
		return "ok", nil
	}})

	env.send(t, "u1", convo.KindCommand, "/caption")
	if got := env.state(t, "u1").State; got != convo.StatePhotoCaption {
		t.Fatalf("expected photo_caption, got %s", got)
	}

	photos := []convo.PhotoSize{
		{URL: "https://files.example/thumb.jpg", Width: 90, Height: 90},
		{URL: "https://files.example/full.jpg", Width: 1280, Height: 960},
	}
	reply, err := env.orch.HandleEvent(context.Background(), convo.Event{
		SessionID: "u1",
		Kind:      convo.KindPhoto,
		Photo:     photos,
	})
	if err != nil {
		t.Fatalf("HandleEvent err: %v", err)
	}
	if !strings.Contains(reply.Text, "FI: koira rannalla") {
		t.Fatalf("expected formatted caption, got %q", reply.Text)
	}
	if env.fetch.lastURL != "https://files.example/full.jpg" {
		t.Fatalf("expected the largest variant to be downloaded, got %q", env.fetch.lastURL)
	}
	if got := env.state(t, "u1").State; got != convo.StatePhotoCaption {
		t.Fatalf("caption mode should loop, got %s", got)
	}
}

func TestVoiceChatEchoesTranscript(t *testing.T) {
	env := newTestEnv(&fakeCompleter{reply: func(_ string, _ []convo.Message, _ string) (string, error) {
		return "Hyvin menee!", nil
	}})

	env.send(t, "u1", convo.KindText, "Generic Chat")
	reply, err := env.orch.HandleEvent(context.Background(), convo.Event{
		SessionID:   "u1",
		Kind:        convo.KindVoice,
		Audio:       []byte{1, 2, 3},
		AudioFormat: "ogg",
	})
	if err != nil {
		t.Fatalf("HandleEvent err: %v", err)
	}
	if !strings.Contains(reply.Text, "hyvää huomenta") {
		t.Fatalf("expected transcript echo, got %q", reply.Text)
	}

	sess := env.state(t, "u1")
	if len(sess.History) != 2 || sess.History[0].Content != "hyvää huomenta" {
		t.Fatalf("transcript should enter history, got %+v", sess.History)
	}
}

func TestInvariantViolationFailsLoudly(t *testing.T) {
	env := newTestEnv(&fakeCompleter{})
	ctx := context.Background()

	// Force an inconsistent session: translate state with no language.
	env.send(t, "u1", convo.KindCommand, "/start")
	if err := env.store.WithSession(ctx, "u1", func(s *convo.Session) error {
		s.State = convo.StateTextToTranslate
		s.TranslationLanguage = ""
		return nil
	}); err != nil {
		t.Fatalf("WithSession err: %v", err)
	}

	_, err := env.orch.HandleEvent(ctx, convo.Event{SessionID: "u1", Kind: convo.KindText, Text: "moi"})
	if !errors.Is(err, dialog.ErrStateInvariant) {
		t.Fatalf("expected ErrStateInvariant, got %v", err)
	}
}
