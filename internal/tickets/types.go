package tickets

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// transitions is the full state machine. A ticket starts open and ends
// closed; closed is terminal.
var transitions = map[Status]Status{
	StatusOpen:       StatusInProgress,
	StatusInProgress: StatusResolved,
	StatusResolved:   StatusClosed,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	return transitions[from] == to
}

// TransitionLabel is the audit label recorded for a state change,
// e.g. "in_progress->resolved". Ticket creation is labelled "created->open".
func TransitionLabel(from, to Status) string {
	return string(from) + "->" + string(to)
}

// CreationLabel is the audit label for the initial open transition.
const CreationLabel = "created->open"

// InvalidTransitionError reports a rejected state change, naming the
// ticket's current status.
type InvalidTransitionError struct {
	TicketID  string
	Current   Status
	Attempted Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("ticket %s is %s, cannot move to %s", e.TicketID, e.Current, e.Attempted)
}

// Ticket is one escalation of a student query to AR staff.
type Ticket struct {
	ID             string
	ReferenceCode  string
	ConversationID string
	StudentID      string
	Status         Status
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// Update is an immutable audit entry appended on every lifecycle transition.
type Update struct {
	ID           string
	TicketID     string
	UpdatedBy    string
	Note         string
	StatusChange string
	CreatedAt    time.Time
}

// Assistance records an in-person resolution performed by AR staff.
type Assistance struct {
	ID                string
	TicketID          string
	StaffID           string
	ActionsTaken      string
	ResolutionSummary string
	CreatedAt         time.Time
}

// ResolutionResult is returned to the caller after a successful resolution.
type ResolutionResult struct {
	TicketID      string    `json:"ticket_id"`
	ReferenceCode string    `json:"reference_code"`
	Status        Status    `json:"status"`
	ResolvedAt    time.Time `json:"resolved_at"`
	FeedbackID    string    `json:"feedback_id"`
}
