// Package dialog implements the per-session conversation state machine:
// it classifies inbound events, routes them through the transition table
// to a mode handler, and commits the resulting session state. Transports
// only translate raw messages into convo.Event and call HandleEvent; they
// never touch session fields.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kielo-labs/kielo/internal/model/convo"
	"github.com/kielo-labs/kielo/internal/service/session"
)

// ErrStateInvariant marks a transition-table bug, such as reaching the
// translate state with no language recorded. It is surfaced loudly, never
// defaulted around.
var ErrStateInvariant = errors.New("state invariant violation")

// Completer runs one chat completion over system prompt, optional history
// and the current query.
type Completer interface {
	Complete(ctx context.Context, system string, history []convo.Message, query string) (string, error)
}

// Transcriber converts voice audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// Captioner describes an image.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// ImageGenerator turns a prompt into an image.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (convo.Image, error)
}

// Fetcher downloads a photo variant by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Deps carries the collaborators the orchestrator drives. Adapters may be
// nil when their service is not configured; the affected modes then fail
// the turn like any other adapter error.
type Deps struct {
	Sessions      *session.Store
	Complete      Completer
	Transcribe    Transcriber
	Caption       Captioner
	GenerateImage ImageGenerator
	Fetch         Fetcher
}

// Options tunes the trainer persona.
type Options struct {
	TeacherName      string
	LearningLanguage string
}

// Orchestrator is the dialogue state machine entry point.
type Orchestrator struct {
	sessions *session.Store
	complete Completer
	stt      Transcriber
	caption  Captioner
	imagegen ImageGenerator
	fetch    Fetcher
	prompts  promptBook
}

// New wires the orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	if opts.TeacherName == "" {
		opts.TeacherName = "Anna"
	}
	if opts.LearningLanguage == "" {
		opts.LearningLanguage = "Finnish"
	}
	return &Orchestrator{
		sessions: deps.Sessions,
		complete: deps.Complete,
		stt:      deps.Transcribe,
		caption:  deps.Caption,
		imagegen: deps.GenerateImage,
		fetch:    deps.Fetch,
		prompts:  promptBook{teacher: opts.TeacherName, language: opts.LearningLanguage},
	}
}

// HandleEvent runs one turn for the event's session. A nil reply with a
// nil error means the event matched no rule and was deliberately ignored.
// Adapter failures abort the turn without committing state and produce an
// apologetic reply; invariant violations are returned as errors.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev convo.Event) (*convo.Reply, error) {
	var reply *convo.Reply
	err := o.sessions.WithSession(ctx, ev.SessionID, func(s *convo.Session) error {
		r, next, err := o.runTurn(ctx, s, ev)
		if err != nil {
			return err
		}
		reply = r
		s.State = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStateInvariant) || errors.Is(err, session.ErrIDRequired) {
			return nil, err
		}
		log.Printf("[dialog] turn aborted for session=%s: %v", ev.SessionID, err)
		return &convo.Reply{Text: "Sorry, something went wrong on my side. Please try again."}, nil
	}
	return reply, nil
}

// runTurn classifies the event and executes the matching handler. The
// returned state is committed by the caller; on error nothing is.
func (o *Orchestrator) runTurn(ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	if cmd, ok := commandOf(ev); ok {
		return o.runCommand(s, cmd)
	}

	// Once ended, only /start is honored.
	if s.State == convo.StateEnded {
		return nil, s.State, nil
	}

	for _, r := range transitions[s.State] {
		if r.match(ev) {
			return r.run(o, ctx, s, ev)
		}
	}

	// No rule matched: deliberate no-op, not an error.
	log.Printf("[dialog] ignoring %s event in state=%s for session=%s", ev.Kind, s.State, ev.SessionID)
	return nil, s.State, nil
}

// commandOf extracts a slash command from the event, either from an
// explicit command event or from plain text starting with a slash.
func commandOf(ev convo.Event) (string, bool) {
	if ev.Kind != convo.KindCommand && ev.Kind != convo.KindText {
		return "", false
	}
	text := strings.ToLower(strings.TrimSpace(ev.Text))
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	if i := strings.IndexAny(text, " @"); i > 0 {
		text = text[:i]
	}
	return text, true
}

// runCommand applies the global command set. Commands win over every
// state-local rule; unknown commands are ignored.
func (o *Orchestrator) runCommand(s *convo.Session, cmd string) (*convo.Reply, convo.State, error) {
	if s.State == convo.StateEnded && cmd != "/start" {
		return nil, s.State, nil
	}

	switch cmd {
	case "/start", "/menu":
		s.TranslationLanguage = ""
		s.VocabWord = ""
		return o.menuReply(), convo.StateInitial, nil
	case "/quit":
		s.TranslationLanguage = ""
		s.VocabWord = ""
		return &convo.Reply{
			Text: "You quit the chat. Send /start whenever you want to practice again.",
		}, convo.StateEnded, nil
	case "/caption":
		s.TranslationLanguage = ""
		s.VocabWord = ""
		return &convo.Reply{
			Text: "Send me a photo and I will caption it for you.",
		}, convo.StatePhotoCaption, nil
	default:
		return nil, s.State, nil
	}
}

func (o *Orchestrator) menuReply() *convo.Reply {
	return &convo.Reply{
		Text:     fmt.Sprintf("Hello, I am your %s language trainer. Choose the chat mode:", o.prompts.language),
		Keyboard: []string{"Generic Chat", "Translation", "Photo Caption", "Vocabulary Quiz"},
	}
}
