package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// vocabRound starts one quiz round: ask the model for a fresh noun,
// generate a picture of it, translate the noun into the learning language
// and store that translation as the round's answer key.
func (o *Orchestrator) vocabRound(ctx context.Context, s *convo.Session, _ convo.Event) (*convo.Reply, convo.State, error) {
	if o.complete == nil {
		return nil, s.State, fmt.Errorf("completion service unavailable")
	}
	if o.imagegen == nil {
		return nil, s.State, fmt.Errorf("image generation service unavailable")
	}

	// Session history carries the nouns of earlier rounds, which lets the
	// model avoid repeats.
	noun, err := o.complete.Complete(ctx, o.prompts.vocabNounSystem(), s.History, "Give me a new word.")
	if err != nil {
		return nil, s.State, err
	}
	noun = strings.TrimSpace(noun)

	image, err := o.imagegen.Generate(ctx, "A clear, simple photograph of "+noun)
	if err != nil {
		return nil, s.State, err
	}

	word, err := o.complete.Complete(ctx, o.prompts.vocabTranslateSystem(), nil, noun)
	if err != nil {
		return nil, s.State, err
	}

	s.VocabWord = strings.TrimSpace(word)
	s.History = append(s.History, convo.AssistantMessage(noun))

	return &convo.Reply{
		Text:  fmt.Sprintf("What is this called in %s?", o.prompts.language),
		Image: &image,
	}, convo.StateAnswerVocabPic, nil
}

// gradeVocabAnswer asks the model to judge the guess against the stored
// answer key and relays the verdict verbatim.
func (o *Orchestrator) gradeVocabAnswer(ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	if s.VocabWord == "" {
		return nil, s.State, fmt.Errorf("%w: grading state with no vocab word set", ErrStateInvariant)
	}
	if o.complete == nil {
		return nil, s.State, fmt.Errorf("completion service unavailable")
	}

	verdict, err := o.complete.Complete(ctx, o.prompts.vocabJudgeSystem(s.VocabWord), nil, ev.Text)
	if err != nil {
		return nil, s.State, err
	}

	s.History = append(s.History, convo.UserMessage(ev.Text), convo.AssistantMessage(verdict))
	s.VocabWord = ""

	return &convo.Reply{
		Text:     verdict + "\n\nAnother round?",
		Keyboard: []string{"Yes", "/menu", "/quit"},
	}, convo.StateVocabPic, nil
}
