package dialog

import "fmt"

// promptBook builds the system prompts for every completion call the mode
// handlers make. Keeping them in one place keeps the handlers focused on
// control flow.
type promptBook struct {
	teacher  string
	language string
}

// chatSystem is the persona prompt for free conversation.
func (p promptBook) chatSystem() string {
	return fmt.Sprintf(
		"You are a %s language teacher named %s. Chat naturally with the student, gently correct their mistakes and encourage them to use %s.",
		p.language, p.teacher, p.language,
	)
}

// translateSystem instructs a single stateless translation.
func (p promptBook) translateSystem(language string) string {
	return "Translate the text to " + language
}

// captionFormatSystem reformats an English caption into the fixed
// three-line template.
func (p promptBook) captionFormatSystem() string {
	return "Translate the text to Finnish and Italian, put it in this format: ENG: <original text> \n FI: <text> \n IT: <text>"
}

// vocabNounSystem requests a fresh quiz noun. Prior rounds ride along as
// history so the model avoids repeating itself.
func (p promptBook) vocabNounSystem() string {
	return "Give me one random concrete English noun suitable for a B2-level vocabulary quiz. Vary the topic between rounds and never repeat a word already used in this conversation. Reply with the single word only, no punctuation."
}

// vocabTranslateSystem translates the quiz noun into the learning
// language.
func (p promptBook) vocabTranslateSystem() string {
	return fmt.Sprintf("Translate the word to %s. Reply with the single word only, no punctuation.", p.language)
}

// vocabJudgeSystem grades a quiz guess against the answer key.
func (p promptBook) vocabJudgeSystem(word string) string {
	return fmt.Sprintf(
		"You are grading a %s vocabulary quiz. The correct word is %q. Tell the student whether their answer matches it or is an acceptable synonym. If they were wrong, give the correct word.",
		p.language, word,
	)
}
