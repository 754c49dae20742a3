package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OfonoA/campusGuide1/internal/db"
)

// ErrEmptyResolution is returned when a resolution summary is blank.
var ErrEmptyResolution = errors.New("resolution summary is required")

// IngestRequester hands a feedback row to the reinforcement pipeline.
// Requests are fire-and-forget: a failed or dropped request never affects
// the resolution that produced it, the row is picked up by a later sweep.
type IngestRequester interface {
	Request(feedbackID string)
}

// Lifecycle enforces the ticket state machine. All ticket mutations go
// through it; every transition appends exactly one audit entry.
type Lifecycle struct {
	db     *db.DB
	ingest IngestRequester
}

// NewLifecycle creates the lifecycle engine. ingest may be nil, in which
// case resolutions rely on the periodic sweep for knowledge promotion.
func NewLifecycle(database *db.DB, ingest IngestRequester) *Lifecycle {
	return &Lifecycle{db: database, ingest: ingest}
}

// Open creates a new open ticket outside any surrounding transaction.
// Used for automated escalation when the bot has no answer; the feedback
// gate creates tickets through Create within its own transaction instead.
func (l *Lifecycle) Open(ctx context.Context, conversationID, studentID, actorID string) (*Ticket, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := Create(ctx, tx, conversationID, studentID, actorID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ticket creation: %w", err)
	}
	return t, nil
}

// Claim moves an open ticket to in_progress on behalf of a staff member.
func (l *Lifecycle) Claim(ctx context.Context, ticketID, actorID string) (*Ticket, error) {
	return l.transition(ctx, ticketID, actorID, StatusInProgress, "Ticket claimed by staff")
}

// Close moves a resolved ticket to its terminal closed state.
func (l *Lifecycle) Close(ctx context.Context, ticketID, actorID string) (*Ticket, error) {
	return l.transition(ctx, ticketID, actorID, StatusClosed, "Ticket closed")
}

func (l *Lifecycle) transition(ctx context.Context, ticketID, actorID string, to Status, note string) (*Ticket, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTicket(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, to) {
		return nil, &InvalidTransitionError{TicketID: ticketID, Current: t.Status, Attempted: to}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tickets SET status = ? WHERE id = ?`, string(to), ticketID); err != nil {
		return nil, fmt.Errorf("updating ticket status: %w", err)
	}
	if _, err := appendUpdate(ctx, tx, ticketID, actorID, note, TransitionLabel(t.Status, to)); err != nil {
		return nil, err
	}

	updated, err := getTicket(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}
	return updated, nil
}

// Resolve records a staff resolution for an in_progress ticket.
//
// One transaction covers the assistance record, the status change, the
// audit entry, the end of the conversation window and the feedback upsert.
// Only after that commits is ingestion requested; a lost or failed
// ingestion never retracts the resolution.
func (l *Lifecycle) Resolve(ctx context.Context, ticketID, actorID, actionsTaken, resolutionSummary string) (*ResolutionResult, error) {
	summary := strings.TrimSpace(resolutionSummary)
	if summary == "" {
		return nil, ErrEmptyResolution
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTicket(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusInProgress {
		return nil, &InvalidTransitionError{TicketID: ticketID, Current: t.Status, Attempted: StatusResolved}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO in_person_assistances (id, ticket_id, ar_staff_id, actions_taken, resolution_summary)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), ticketID, actorID, strings.TrimSpace(actionsTaken), summary)
	if err != nil {
		return nil, fmt.Errorf("recording assistance: %w", err)
	}

	resolvedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `UPDATE tickets SET status = ?, resolved_at = ? WHERE id = ?`,
		string(StatusResolved), resolvedAt, ticketID)
	if err != nil {
		return nil, fmt.Errorf("updating ticket status: %w", err)
	}

	if _, err := appendUpdate(ctx, tx, ticketID, actorID, summary, TransitionLabel(StatusInProgress, StatusResolved)); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		resolvedAt, t.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("ending conversation: %w", err)
	}

	// One feedback row per ticket, refreshed on re-resolution. The partial
	// unique index on rl_feedback(ticket_id) closes the check-then-act race.
	var feedbackID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rl_feedback (id, ticket_id, validated_answer, confidence, ingested)
		VALUES (?, ?, ?, 'high', 0)
		ON CONFLICT(ticket_id) WHERE ticket_id IS NOT NULL
		DO UPDATE SET validated_answer = excluded.validated_answer, confidence = 'high', ingested = 0
		RETURNING id`,
		uuid.New().String(), ticketID, summary).Scan(&feedbackID)
	if err != nil {
		return nil, fmt.Errorf("upserting feedback: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing resolution: %w", err)
	}

	if l.ingest != nil {
		l.ingest.Request(feedbackID)
	}

	return &ResolutionResult{
		TicketID:      ticketID,
		ReferenceCode: t.ReferenceCode,
		Status:        StatusResolved,
		ResolvedAt:    resolvedAt,
		FeedbackID:    feedbackID,
	}, nil
}
