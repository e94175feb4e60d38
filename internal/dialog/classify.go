package dialog

import (
	"strings"
	"unicode"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// Keyword tables drive intent classification. Matching always happens on
// normalized text, so keyboard labels may carry flags or other glyphs
// without the transition logic depending on them.

var modeKeywords = map[string]convo.State{
	"generic chat":    convo.StateChat,
	"chat":            convo.StateChat,
	"translation":     convo.StateLanguagePick,
	"translate":       convo.StateLanguagePick,
	"photo caption":   convo.StatePhotoCaption,
	"caption":         convo.StatePhotoCaption,
	"vocabulary quiz": convo.StateStartVocabPic,
	"vocabulary":      convo.StateStartVocabPic,
	"quiz":            convo.StateStartVocabPic,
}

// languageKeywords maps normalized picks to the canonical language name
// stored in the session.
var languageKeywords = map[string]string{
	"english": "English",
	"finnish": "Finnish",
	"italian": "Italian",
}

var ackKeywords = map[string]struct{}{
	"yes":        {},
	"yes please": {},
	"ready":      {},
	"im ready":   {},
	"i am ready": {},
	"ok":         {},
	"okay":       {},
	"sure":       {},
	"go":         {},
	"another":    {},
	"next":       {},
	"continue":   {},
}

// normalize case-folds the text, drops every rune that is not a letter,
// digit or space (flag emoji, punctuation, decorative glyphs) and
// collapses whitespace runs.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func matchMode(ev convo.Event) bool {
	if ev.Kind != convo.KindText {
		return false
	}
	_, ok := modeKeywords[normalize(ev.Text)]
	return ok
}

func matchLanguage(ev convo.Event) bool {
	if ev.Kind != convo.KindText {
		return false
	}
	_, ok := languageKeywords[normalize(ev.Text)]
	return ok
}

func matchAck(ev convo.Event) bool {
	if ev.Kind != convo.KindText {
		return false
	}
	_, ok := ackKeywords[normalize(ev.Text)]
	return ok
}

func matchKind(kind convo.Kind) func(convo.Event) bool {
	return func(ev convo.Event) bool {
		return ev.Kind == kind
	}
}
