package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OfonoA/campusGuide1/internal/db"
)

// NewReferenceCode generates a human-readable ticket reference.
// The UNIQUE constraint on tickets.reference_code is the collision backstop.
func NewReferenceCode(now time.Time) string {
	return "AR-" + now.UTC().Format("20060102150405")
}

// Create inserts a new open ticket plus its "created->open" audit entry.
// It runs against the caller's Querier so the gate can include ticket
// creation in its own transaction. A reference-code or concurrent-creation
// race surfaces as db.ErrConflict.
func Create(ctx context.Context, q db.Querier, conversationID, studentID, actorID string) (*Ticket, error) {
	id := uuid.New().String()
	ref := NewReferenceCode(time.Now())

	_, err := q.ExecContext(ctx, `
		INSERT INTO tickets (id, reference_code, conversation_id, student_id, status)
		VALUES (?, ?, ?, ?, ?)`,
		id, ref, conversationID, studentID, string(StatusOpen))
	if err != nil {
		if db.IsConstraint(err) {
			return nil, fmt.Errorf("creating ticket %s: %w", ref, db.ErrConflict)
		}
		return nil, fmt.Errorf("creating ticket: %w", err)
	}

	if _, err := appendUpdate(ctx, q, id, actorID, "Ticket created", CreationLabel); err != nil {
		return nil, err
	}

	return getTicket(ctx, q, id)
}

// Store provides read access to tickets and their audit trail.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the ticket with the given ID, or db.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Ticket, error) {
	return getTicket(ctx, s.db, id)
}

// GetByReference returns the ticket with the given reference code.
func (s *Store) GetByReference(ctx context.Context, ref string) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference_code, conversation_id, student_id, status, created_at, resolved_at
		FROM tickets WHERE reference_code = ?`, ref)
	return scanTicket(row)
}

// ListByStatus returns tickets in the given status, oldest first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference_code, conversation_id, student_id, status, created_at, resolved_at
		FROM tickets WHERE status = ? ORDER BY created_at, id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListUpdates returns a ticket's audit trail in chronological order.
func (s *Store) ListUpdates(ctx context.Context, ticketID string) ([]Update, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, updated_by, note, status_change, created_at
		FROM ticket_updates WHERE ticket_id = ? ORDER BY created_at, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("listing ticket updates: %w", err)
	}
	defer rows.Close()

	var out []Update
	for rows.Next() {
		var u Update
		if err := rows.Scan(&u.ID, &u.TicketID, &u.UpdatedBy, &u.Note, &u.StatusChange, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ticket update: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListAssistance returns the in-person assistance records for a ticket.
func (s *Store) ListAssistance(ctx context.Context, ticketID string) ([]Assistance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, ar_staff_id, actions_taken, resolution_summary, created_at
		FROM in_person_assistances WHERE ticket_id = ? ORDER BY created_at, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("listing assistance records: %w", err)
	}
	defer rows.Close()

	var out []Assistance
	for rows.Next() {
		var a Assistance
		if err := rows.Scan(&a.ID, &a.TicketID, &a.StaffID, &a.ActionsTaken, &a.ResolutionSummary, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning assistance record: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func getTicket(ctx context.Context, q db.Querier, id string) (*Ticket, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, reference_code, conversation_id, student_id, status, created_at, resolved_at
		FROM tickets WHERE id = ?`, id)
	return scanTicket(row)
}

func appendUpdate(ctx context.Context, q db.Querier, ticketID, actorID, note, label string) (string, error) {
	id := uuid.New().String()
	_, err := q.ExecContext(ctx, `
		INSERT INTO ticket_updates (id, ticket_id, updated_by, note, status_change)
		VALUES (?, ?, ?, ?, ?)`,
		id, ticketID, actorID, note, label)
	if err != nil {
		return "", fmt.Errorf("appending ticket update: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var t Ticket
	var resolved sql.NullTime
	err := row.Scan(&t.ID, &t.ReferenceCode, &t.ConversationID, &t.StudentID, &t.Status, &t.CreatedAt, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}
	if resolved.Valid {
		t.ResolvedAt = &resolved.Time
	}
	return &t, nil
}
