package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/OfonoA/campusGuide1/internal/conversations"
	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/tickets"
)

// Gate validates a rating submission and decides what knowledge candidate,
// if any, it produces. A dissatisfied rating yields a medium-confidence
// candidate carrying the bot's answer; medium rows are never auto-ingested,
// only staff resolutions are.
type Gate struct {
	db *db.DB
}

// NewGate creates the feedback gate.
func NewGate(database *db.DB) *Gate {
	return &Gate{db: database}
}

// Submit processes one rating of a bot message.
//
// Preconditions: the message must exist and be bot-authored, the owning
// conversation must belong to the submitting student, and the message must
// not have been rated before. The student_feedback unique constraint is the
// backstop against concurrent double submission.
func (g *Gate) Submit(ctx context.Context, messageID, studentID string, satisfactory, requestInPerson bool) (*Result, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	msg, conv, err := g.subject(ctx, tx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Sender != conversations.SenderBot {
		return nil, fmt.Errorf("message %s from %s: %w", messageID, msg.Sender, ErrNotRateable)
	}
	if conv.UserID != studentID {
		return nil, ErrForbidden
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO student_feedback (id, message_id, student_id, satisfactory)
		VALUES (?, ?, ?, ?)`,
		uuid.New().String(), messageID, studentID, satisfactory)
	if err != nil {
		if db.IsConstraint(err) {
			return nil, ErrDuplicateFeedback
		}
		return nil, fmt.Errorf("recording rating: %w", err)
	}

	if satisfactory {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing feedback: %w", err)
		}
		return &Result{Message: "Thank you for your feedback. We're glad it helped."}, nil
	}

	// Dissatisfied: keep the bot answer as an unvetted medium candidate.
	feedbackID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rl_feedback (id, message_id, validated_answer, confidence, ingested)
		VALUES (?, ?, ?, 'medium', 0)`,
		feedbackID, messageID, msg.Content)
	if err != nil {
		if db.IsConstraint(err) {
			return nil, ErrDuplicateFeedback
		}
		return nil, fmt.Errorf("recording knowledge candidate: %w", err)
	}

	if !requestInPerson {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing feedback: %w", err)
		}
		return &Result{
			Message:    "Thank you for your feedback. We will use it to improve responses.",
			FeedbackID: feedbackID,
		}, nil
	}

	ticket, err := tickets.Create(ctx, tx, conv.ID, studentID, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE rl_feedback SET ticket_id = ? WHERE id = ?`, ticket.ID, feedbackID); err != nil {
		return nil, fmt.Errorf("linking feedback to ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing feedback: %w", err)
	}
	return &Result{
		Message:         "Your request has been escalated to Academic Registrar staff.",
		TicketReference: ticket.ReferenceCode,
		FeedbackID:      feedbackID,
	}, nil
}

func (g *Gate) subject(ctx context.Context, q db.Querier, messageID string) (*conversations.Message, *conversations.Conversation, error) {
	row := q.QueryRowContext(ctx, `
		SELECT m.id, m.conversation_id, m.sender, m.content,
		       c.id, c.user_id, c.ended_at
		FROM messages m JOIN conversations c ON c.id = m.conversation_id
		WHERE m.id = ?`, messageID)

	var m conversations.Message
	var c conversations.Conversation
	var ended sql.NullTime
	err := row.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &c.ID, &c.UserID, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("message %s: %w", messageID, db.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading message: %w", err)
	}
	if ended.Valid {
		c.EndedAt = &ended.Time
	}
	return &m, &c, nil
}
