package dialog

import (
	"context"
	"fmt"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// selectMode leaves the menu for the chosen learning mode.
func (o *Orchestrator) selectMode(_ context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	next := modeKeywords[normalize(ev.Text)]

	switch next {
	case convo.StateChat:
		return &convo.Reply{
			Text: "Let's chat! Send me a message, a voice note or a photo.",
		}, next, nil
	case convo.StateLanguagePick:
		return &convo.Reply{
			Text:     "Which destination language do you want to translate to?",
			Keyboard: []string{"🇬🇧 English", "🇫🇮 Finnish", "🇮🇹 Italian"},
		}, next, nil
	case convo.StatePhotoCaption:
		return &convo.Reply{
			Text: "Send me a photo and I will caption it for you.",
		}, next, nil
	case convo.StateStartVocabPic:
		return &convo.Reply{
			Text:     fmt.Sprintf("Let's play a vocabulary game! I will show you a picture and you name it in %s. Ready?", o.prompts.language),
			Keyboard: []string{"Ready", "/menu"},
		}, next, nil
	default:
		// matchMode guarantees a known keyword; anything else is a table bug.
		return nil, s.State, fmt.Errorf("%w: mode keyword %q has no target state", ErrStateInvariant, ev.Text)
	}
}

// chatTurn runs one free-chat completion with the full session history as
// context. The user and assistant messages are appended only after the
// completion succeeds, so a failed turn leaves history untouched.
func (o *Orchestrator) chatTurn(ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	if o.complete == nil {
		return nil, s.State, fmt.Errorf("completion service unavailable")
	}

	answer, err := o.complete.Complete(ctx, o.prompts.chatSystem(), s.History, ev.Text)
	if err != nil {
		return nil, s.State, err
	}

	s.History = append(s.History, convo.UserMessage(ev.Text), convo.AssistantMessage(answer))
	return &convo.Reply{Text: "*[Bot]:* " + answer}, convo.StateChat, nil
}

// voiceChat transcribes a voice note, echoes the transcript back and then
// continues like a normal chat turn.
func (o *Orchestrator) voiceChat(ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	if o.complete == nil {
		return nil, s.State, fmt.Errorf("completion service unavailable")
	}
	if o.stt == nil {
		return nil, s.State, fmt.Errorf("transcription service unavailable")
	}

	transcript, err := o.stt.Transcribe(ctx, ev.Audio, ev.AudioFormat)
	if err != nil {
		return nil, s.State, err
	}

	answer, err := o.complete.Complete(ctx, o.prompts.chatSystem(), s.History, transcript)
	if err != nil {
		return nil, s.State, err
	}

	s.History = append(s.History, convo.UserMessage(transcript), convo.AssistantMessage(answer))
	return &convo.Reply{
		Text: fmt.Sprintf("*[You]:* _%s_\n*[Bot]:* %s", transcript, answer),
	}, convo.StateChat, nil
}
