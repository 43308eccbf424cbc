package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store manages conversation persistence with a PostgreSQL backend.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a conversation store. A nil logger falls back to the default.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// CreateConversation creates a new conversation for a user. An empty title
// is stored as NULL.
func (s *Store) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	var titlePtr *string
	if title != "" {
		titlePtr = &title
	}

	var c Conversation
	var dbTitle *string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, created_at, updated_at`,
		userID, titlePtr,
	).Scan(&c.ID, &c.UserID, &dbTitle, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	if dbTitle != nil {
		c.Title = *dbTitle
	}

	s.logger.Debug("created conversation", "id", c.ID, "user_id", userID)
	return &c, nil
}

// GetConversation retrieves a conversation by ID.
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	var dbTitle *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.UserID, &dbTitle, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	if dbTitle != nil {
		c.Title = *dbTitle
	}
	return &c, nil
}

// ListConversations lists a user's conversations, most recently updated
// first.
func (s *Store) ListConversations(ctx context.Context, userID string, limit, offset int32) ([]*Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		var c Conversation
		var dbTitle *string
		if err := rows.Scan(&c.ID, &c.UserID, &dbTitle, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		if dbTitle != nil {
			c.Title = *dbTitle
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return out, nil
}

// AppendMessages appends messages to a conversation, assigning consecutive
// sequence numbers. The whole append runs in one transaction with the
// conversation row locked, so two concurrent appends to the same conversation
// cannot produce duplicate sequence numbers.
func (s *Store) AppendMessages(ctx context.Context, conversationID uuid.UUID, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	var locked uuid.UUID
	if err := tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`,
		conversationID,
	).Scan(&locked); err != nil {
		return fmt.Errorf("locking conversation %s: %w", conversationID, err)
	}

	var maxSeq int32
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM conversation_messages WHERE conversation_id = $1`,
		conversationID,
	).Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	for i, msg := range messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			return fmt.Errorf("message %d has invalid role %q", i, msg.Role)
		}
		seq := maxSeq + int32(i) + 1
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_messages (conversation_id, sequence_number, role, content)
			VALUES ($1, $2, $3, $4)`,
			conversationID, seq, msg.Role, msg.Content,
		); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`,
		conversationID,
	); err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("appended messages", "conversation_id", conversationID, "count", len(messages))
	return nil
}

// Messages retrieves a conversation's messages ordered by sequence number
// ascending.
func (s *Store) Messages(ctx context.Context, conversationID uuid.UUID, limit, offset int32) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, sequence_number, role, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY sequence_number ASC
		LIMIT $2 OFFSET $3`,
		conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("getting messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SequenceNumber, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return out, nil
}
