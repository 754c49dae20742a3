package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OfonoA/campusGuide1/internal/db"
)

// Store provides CRUD operations for knowledge-candidate feedback rows.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the feedback row with the given ID, or db.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, message_id, validated_answer, confidence, ingested, created_at
		FROM rl_feedback WHERE id = ?`, id)
	return scanFeedback(row)
}

// GetByMessage returns the feedback row attached to a message.
func (s *Store) GetByMessage(ctx context.Context, messageID string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, message_id, validated_answer, confidence, ingested, created_at
		FROM rl_feedback WHERE message_id = ?`, messageID)
	return scanFeedback(row)
}

// GetByTicket returns the feedback row attached to a ticket.
func (s *Store) GetByTicket(ctx context.Context, ticketID string) (*Feedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, message_id, validated_answer, confidence, ingested, created_at
		FROM rl_feedback WHERE ticket_id = ?`, ticketID)
	return scanFeedback(row)
}

// ListPending returns un-ingested rows at the given confidence, oldest
// first. This is the selection step of the reinforcement sweep; the engine
// re-checks each row at execution time via MarkIngested.
func (s *Store) ListPending(ctx context.Context, confidence Confidence) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, message_id, validated_answer, confidence, ingested, created_at
		FROM rl_feedback WHERE ingested = 0 AND confidence = ?
		ORDER BY created_at, id`, string(confidence))
	if err != nil {
		return nil, fmt.Errorf("listing pending feedback: %w", err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// MarkIngested flips the commit marker. It returns false when the row was
// already ingested, closing the race between sweep selection and execution.
func (s *Store) MarkIngested(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rl_feedback SET ingested = 1 WHERE id = ? AND ingested = 0`, id)
	if err != nil {
		return false, fmt.Errorf("marking feedback ingested: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking feedback ingested: %w", err)
	}
	return n > 0, nil
}

// GetStudentFeedback returns a student's raw rating for a message.
func (s *Store) GetStudentFeedback(ctx context.Context, messageID string) (*StudentFeedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, message_id, student_id, satisfactory, created_at
		FROM student_feedback WHERE message_id = ?`, messageID)

	var sf StudentFeedback
	err := row.Scan(&sf.ID, &sf.MessageID, &sf.StudentID, &sf.Satisfactory, &sf.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning student feedback: %w", err)
	}
	return &sf, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row rowScanner) (*Feedback, error) {
	var f Feedback
	var ticketID, messageID sql.NullString
	err := row.Scan(&f.ID, &ticketID, &messageID, &f.ValidatedAnswer, &f.Confidence, &f.Ingested, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning feedback: %w", err)
	}
	f.TicketID = ticketID.String
	f.MessageID = messageID.String
	return &f, nil
}
