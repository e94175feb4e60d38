package dialog

import (
	"context"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

// handlerFunc executes one mode handler against the working session copy
// and names the state to commit. Handlers mutate the session only after
// every adapter call has succeeded, so an aborted turn leaves no trace.
type handlerFunc func(o *Orchestrator, ctx context.Context, s *convo.Session, ev convo.Event) (*convo.Reply, convo.State, error)

type rule struct {
	match func(convo.Event) bool
	run   handlerFunc
}

// transitions is the declarative state machine. Within a state, rules are
// checked in order, so exact keyword matchers must precede content-kind
// fallbacks. Global commands are handled before this table is consulted.
var transitions = map[convo.State][]rule{
	convo.StateInitial: {
		{matchMode, (*Orchestrator).selectMode},
	},
	convo.StateChat: {
		{matchKind(convo.KindVoice), (*Orchestrator).voiceChat},
		{matchKind(convo.KindPhoto), (*Orchestrator).captionPhoto},
		{matchKind(convo.KindText), (*Orchestrator).chatTurn},
	},
	convo.StateLanguagePick: {
		{matchLanguage, (*Orchestrator).pickLanguage},
	},
	convo.StateTextToTranslate: {
		{matchKind(convo.KindText), (*Orchestrator).translateText},
	},
	convo.StatePhotoCaption: {
		{matchKind(convo.KindPhoto), (*Orchestrator).captionPhoto},
	},
	convo.StateStartVocabPic: {
		{matchAck, (*Orchestrator).vocabRound},
	},
	convo.StateVocabPic: {
		{matchAck, (*Orchestrator).vocabRound},
	},
	convo.StateAnswerVocabPic: {
		{matchKind(convo.KindText), (*Orchestrator).gradeVocabAnswer},
	},
	// StateEnded has no rules: only /start revives the session.
}
