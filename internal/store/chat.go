package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateMessage assigns the id and timestamp and appends the message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *ChatMessage) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (id, user_id, text, is_from_user, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.UserID, msg.Text, msg.IsFromUser, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

// ListMessagesByUser returns the most recent limit messages, oldest first.
func (s *SQLiteStore) ListMessagesByUser(ctx context.Context, userID int64, limit int) ([]ChatMessage, error) {
	query := `
        SELECT id, user_id, text, is_from_user, created_at FROM (
            SELECT id, user_id, text, is_from_user, created_at, rowid AS seq
            FROM chat_messages
            WHERE user_id = ?
            ORDER BY created_at DESC, seq DESC
            LIMIT ?
        ) ORDER BY created_at ASC, seq ASC
    `
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []ChatMessage{}
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Text, &msg.IsFromUser, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) DeleteMessagesByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
