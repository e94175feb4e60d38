package dialog

import (
	"context"
	"fmt"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// captionPhoto downloads the highest-resolution photo variant, captions
// it and reformats the caption into the fixed three-language template.
// The session stays in whatever state it was in, so both the caption loop
// and photos sent mid-chat work the same way.
func (o *Orchestrator) captionPhoto(ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error) {
	if o.complete == nil {
		return nil, s.State, fmt.Errorf("completion service unavailable")
	}
	if o.caption == nil || o.fetch == nil {
		return nil, s.State, fmt.Errorf("caption service unavailable")
	}

	variant, ok := ev.LargestPhoto()
	if !ok {
		return nil, s.State, fmt.Errorf("photo event carried no variants")
	}

	image, err := o.fetch.Fetch(ctx, variant.URL)
	if err != nil {
		return nil, s.State, err
	}

	caption, err := o.caption.Caption(ctx, image)
	if err != nil {
		return nil, s.State, err
	}

	formatted, err := o.complete.Complete(ctx, o.prompts.captionFormatSystem(), nil, caption)
	if err != nil {
		return nil, s.State, err
	}

	return &convo.Reply{Text: formatted}, s.State, nil
}
