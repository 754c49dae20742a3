package feedback

import (
	"errors"
	"time"
)

// Confidence grades a knowledge candidate. Only high-confidence rows
// (staff-validated resolutions) are promoted into the knowledge base;
// medium rows are unvetted dissatisfaction signals kept for audit.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// ErrNotRateable is returned when the rated message was not bot-authored.
var ErrNotRateable = errors.New("message is not rateable")

// ErrForbidden is returned when the conversation belongs to another student.
var ErrForbidden = errors.New("conversation does not belong to student")

// ErrDuplicateFeedback is returned when a message already has feedback.
var ErrDuplicateFeedback = errors.New("feedback already submitted for message")

// Feedback is a knowledge candidate tied to a bot message or a ticket.
type Feedback struct {
	ID              string
	TicketID        string // empty when not escalated
	MessageID       string // empty for resolution-driven rows
	ValidatedAnswer string
	Confidence      Confidence
	Ingested        bool
	CreatedAt       time.Time
}

// StudentFeedback is the raw satisfaction rating a student submitted.
type StudentFeedback struct {
	ID           string
	MessageID    string
	StudentID    string
	Satisfactory bool
	CreatedAt    time.Time
}

// Result acknowledges a feedback submission.
type Result struct {
	Message         string `json:"message"`
	TicketReference string `json:"ticket_reference,omitempty"`
	FeedbackID      string `json:"feedback_id,omitempty"`
}
