package dialog

import (
	"context"
	"fmt"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// pickLanguage stores the chosen destination language and moves on to the
// translation loop.
func (o *Orchestrator) pickLanguage(_ context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	language := languageKeywords[normalize(ev.Text)]
	s.TranslationLanguage = language

	return &convo.Reply{
		Text: "Type the text you want to translate to " + language,
	}, convo.StateTextToTranslate, nil
}

// translateText issues one stateless translation call: a system+user pair
// per request, no history carried between texts.
func (o *Orchestrator) translateText(ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	if s.TranslationLanguage == "" {
		return nil, s.State, fmt.Errorf("%w: translate state with no language set", ErrStateInvariant)
	}
	if o.complete == nil {
		return nil, s.State, fmt.Errorf("completion service unavailable")
	}

	translated, err := o.complete.Complete(ctx, o.prompts.translateSystem(s.TranslationLanguage), nil, ev.Text)
	if err != nil {
		return nil, s.State, err
	}

	return &convo.Reply{Text: "*[Translation]:* " + translated}, convo.StateTextToTranslate, nil
}
