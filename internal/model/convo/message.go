package convo

// Message is one turn of conversation history. Entries are immutable once
// appended.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles accepted in history entries.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserMessage builds a user-authored history entry.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-authored history entry.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
