package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/OfonoA/campusGuide1/internal/db"
)

// Store provides CRUD operations for conversations and messages.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create starts a new conversation for the given user.
func (s *Store) Create(ctx context.Context, userID, title string) (*Conversation, error) {
	id := uuid.New().String()

	var t sql.NullString
	if title != "" {
		t = sql.NullString{String: title, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title) VALUES (?, ?, ?)`,
		id, userID, t)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns the conversation with the given ID, or db.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, started_at, ended_at
		FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// AddMessage appends a message to a conversation.
func (s *Store) AddMessage(ctx context.Context, conversationID string, sender Sender, content string, confidence *float64) (*Message, error) {
	id := uuid.New().String()

	var score sql.NullFloat64
	if confidence != nil {
		score = sql.NullFloat64{Float64: *confidence, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, content, confidence_score)
		VALUES (?, ?, ?, ?, ?)`,
		id, conversationID, string(sender), content, score)
	if err != nil {
		return nil, fmt.Errorf("adding message: %w", err)
	}

	return s.GetMessage(ctx, id)
}

// GetMessage returns the message with the given ID, or db.ErrNotFound.
func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender, content, confidence_score, created_at
		FROM messages WHERE id = ?`, id)

	var m Message
	var score sql.NullFloat64
	err := row.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &score, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning message: %w", err)
	}
	if score.Valid {
		m.ConfidenceScore = &score.Float64
	}
	return &m, nil
}

// ListMessages returns all messages of a conversation in chronological order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender, content, confidence_score, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var score sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &score, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if score.Valid {
			m.ConfidenceScore = &score.Float64
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// End closes the conversation's active window by stamping ended_at.
// Ending an already ended conversation is a no-op.
func (s *Store) End(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET ended_at = datetime('now')
		WHERE id = ? AND ended_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("ending conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either absent or already ended; distinguish for the caller.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var c Conversation
	var title sql.NullString
	var ended sql.NullTime
	err := row.Scan(&c.ID, &c.UserID, &title, &c.StartedAt, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}
	if title.Valid {
		c.Title = title.String
	}
	if ended.Valid {
		c.EndedAt = &ended.Time
	}
	return &c, nil
}
