package repository

import (
	"context"

	"emote-server/internal/domain"
)

// ChatRepository exposes persistence operations for chats and their members.
type ChatRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, chat *domain.Chat) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Chat, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Chat, error)
	AddMember(ctx context.Context, chatID, userID int64) error
	RemoveMember(ctx context.Context, chatID, userID int64) error
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
}

// MessageRepository manages messages posted within chats.
type MessageRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, msg *domain.Message) (int64, error)
	// ListByChat returns the chat's messages, newest first, with each
	// message's Author populated.
	ListByChat(ctx context.Context, chatID int64) ([]domain.Message, error)
}
