package conversations

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderStudent Sender = "student"
	SenderBot     Sender = "bot"
	SenderStaff   Sender = "ar_staff"
)

// Conversation is one chat session between a student and the bot.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Active reports whether the conversation window is still open.
func (c *Conversation) Active() bool {
	return c.EndedAt == nil
}

// Message is a single turn within a conversation.
type Message struct {
	ID              string
	ConversationID  string
	Sender          Sender
	Content         string
	ConfidenceScore *float64
	CreatedAt       time.Time
}
