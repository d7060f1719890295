package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopassist/internal/model"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a duplicate key
const uniqueViolation = "23505"

const sessionColumns = `s.id, s.session_id, s.user_id, s.created_at, s.updated_at, s.is_active`

// GetSession returns the session owned by userID, without messages
func (r *PostgresRepository) GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.session_pk = s.id) AS message_count
		FROM chat_sessions s
		WHERE s.session_id = $1 AND s.user_id = $2`, sessionColumns)

	var session model.ChatSession
	if err := r.db.GetContext(ctx, &session, query, sessionID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &session, nil
}

// CreateSession stores a new active session. A session id already taken by
// any user yields ErrConflict.
func (r *PostgresRepository) CreateSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (session_id, user_id)
		VALUES ($1, $2)
		RETURNING id, session_id, user_id, created_at, updated_at, is_active`

	var session model.ChatSession
	if err := r.db.GetContext(ctx, &session, query, sessionID, userID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return &session, nil
}

// ListSessions returns the user's active sessions, most recently updated first
func (r *PostgresRepository) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.session_pk = s.id) AS message_count
		FROM chat_sessions s
		WHERE s.user_id = $1 AND s.is_active = true
		ORDER BY s.updated_at DESC`, sessionColumns)

	sessions := []model.ChatSession{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

// ListMessages returns a session's messages in chronological order
func (r *PostgresRepository) ListMessages(ctx context.Context, sessionPK int64) ([]model.ChatMessage, error) {
	query := `
		SELECT id, session_pk, message_type, content, metadata, timestamp
		FROM chat_messages
		WHERE session_pk = $1
		ORDER BY timestamp, id`

	messages := []model.ChatMessage{}
	if err := r.db.SelectContext(ctx, &messages, query, sessionPK); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// AddMessage appends a message and bumps the session's updated_at
func (r *PostgresRepository) AddMessage(ctx context.Context, msg *model.ChatMessage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if msg.Metadata == nil {
		msg.Metadata = model.JSONMap{}
	}

	insert := `
		INSERT INTO chat_messages (session_pk, message_type, content, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp`
	if err := tx.QueryRowxContext(ctx, insert, msg.SessionPK, msg.MessageType, msg.Content, msg.Metadata).
		Scan(&msg.ID, &msg.Timestamp); err != nil {
		return fmt.Errorf("failed to add chat message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, msg.SessionPK); err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat message: %w", err)
	}
	return nil
}

// AddIntent records the classification of a user message
func (r *PostgresRepository) AddIntent(ctx context.Context, intent *model.UserIntent) error {
	query := `
		INSERT INTO user_intents (session_pk, intent_type, confidence, parameters)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, intent.SessionPK, intent.IntentType, intent.Confidence, intent.Parameters).
		Scan(&intent.ID, &intent.CreatedAt); err != nil {
		return fmt.Errorf("failed to add user intent: %w", err)
	}
	return nil
}

// ClearSession removes all messages and intents of a session
func (r *PostgresRepository) ClearSession(ctx context.Context, sessionPK int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_pk = $1`, sessionPK); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_intents WHERE session_pk = $1`, sessionPK); err != nil {
		return fmt.Errorf("failed to delete user intents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session reset: %w", err)
	}
	return nil
}

// DeleteSession removes a session; messages and intents cascade
func (r *PostgresRepository) DeleteSession(ctx context.Context, sessionPK int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionPK)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
