package convo

import "time"

// State identifies a node in the dialogue state machine. Every session is
// in exactly one state at any time; all inbound events are evaluated
// against that single value.
type State string

const (
	// StateInitial doubles as the mode menu: the session waits for one of
	// the mode keywords (or a command).
	StateInitial State = "initial"

	// StateChat is the free-conversation mode with the trainer persona.
	StateChat State = "chat"

	// StateLanguagePick waits for a destination language choice before
	// translation begins.
	StateLanguagePick State = "language_pick"

	// StateTextToTranslate loops on texts to translate, one completion
	// call per text, no accumulated history.
	StateTextToTranslate State = "text_to_translate"

	// StatePhotoCaption loops on photos, captioning each one.
	StatePhotoCaption State = "photo_caption"

	// StateStartVocabPic waits for a readiness acknowledgement before the
	// first quiz round.
	StateStartVocabPic State = "start_vocab_pic"

	// StateVocabPic rests between quiz rounds, waiting for the user to ask
	// for another one.
	StateVocabPic State = "vocab_pic"

	// StateAnswerVocabPic waits for the user's guess at the current quiz
	// word.
	StateAnswerVocabPic State = "answer_vocab_pic"

	// StateEnded is terminal: only /start revives the session.
	StateEnded State = "ended"
)

// States lists every reachable state, in graph order.
func States() []State {
	return []State{
		StateInitial,
		StateChat,
		StateLanguagePick,
		StateTextToTranslate,
		StatePhotoCaption,
		StateStartVocabPic,
		StateVocabPic,
		StateAnswerVocabPic,
		StateEnded,
	}
}

// Session captures one user's conversational context. History and the
// optional mode fields are owned exclusively by the session; nothing is
// shared process-wide.
type Session struct {
	ID      string    `json:"id"`
	State   State     `json:"state"`
	History []Message `json:"history"`

	// TranslationLanguage is set only while the session is inside the
	// translation sub-graph.
	TranslationLanguage string `json:"translationLanguage,omitempty"`

	// VocabWord is the answer key of the active quiz round, set only while
	// the session is in StateAnswerVocabPic.
	VocabWord string `json:"vocabWord,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
