package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sessiondb "smart-shopping-list/internal/telegram/session_db"
)

// Session is the per-chat state: who is talking and which list their
// commands apply to.
type Session struct {
	ChatID       int64
	UserID       string
	ActiveListID string
	UpdatedAt    time.Time
}

// SessionRepository provides access to session persistence operations
type SessionRepository struct {
	queries *sessiondb.Queries
	db      *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{
		queries: sessiondb.New(db),
		db:      db,
	}
}

// Get returns the session of a chat, or nil when the chat has none yet.
func (sr *SessionRepository) Get(ctx context.Context, chatID int64) (*Session, error) {
	row, err := sr.queries.GetChatSession(ctx, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	s := fromRow(row)
	return &s, nil
}

// SetActiveList makes listID the target of the chat's commands.
func (sr *SessionRepository) SetActiveList(ctx context.Context, chatID int64, userID, listID string) error {
	err := sr.queries.UpsertChatSession(ctx, sessiondb.UpsertChatSessionParams{
		ChatID:       chatID,
		UserID:       userID,
		ActiveListID: listID,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// ChatsForList returns the chats currently working on listID.
func (sr *SessionRepository) ChatsForList(ctx context.Context, listID string) ([]Session, error) {
	rows, err := sr.queries.ListChatSessionsByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	out := make([]Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

// Delete removes a chat's session
func (sr *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	return sr.queries.DeleteChatSession(ctx, chatID)
}

func fromRow(r sessiondb.ChatSession) Session {
	return Session{
		ChatID:       r.ChatID,
		UserID:       r.UserID,
		ActiveListID: r.ActiveListID,
		UpdatedAt:    r.UpdatedAt,
	}
}
