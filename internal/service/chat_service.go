package service

import (
	"context"
	"errors"

	"emote-server/internal/domain"
	"emote-server/internal/repository"
)

// ErrChatNotFound indicates the referenced chat does not exist.
var ErrChatNotFound = errors.New("chat not found")

// ChatService coordinates chat, membership and message operations.
type ChatService interface {
	ListForUser(ctx context.Context, userID int64) ([]domain.Chat, error)
	// Create makes a new chat and enrolls the creator as its first member.
	Create(ctx context.Context, creatorID int64, name string) (*domain.Chat, error)
	Messages(ctx context.Context, chatID int64) ([]domain.Message, error)
	Post(ctx context.Context, chatID, userID int64, text string) (*domain.Message, error)
	AddMember(ctx context.Context, chatID, userID int64) error
	RemoveMember(ctx context.Context, chatID, userID int64) error
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
}

type chatService struct {
	chats    repository.ChatRepository
	messages repository.MessageRepository
	users    repository.UserRepository
}

func NewChatService(chats repository.ChatRepository, messages repository.MessageRepository, users repository.UserRepository) ChatService {
	return &chatService{
		chats:    chats,
		messages: messages,
		users:    users,
	}
}

func (s *chatService) ListForUser(ctx context.Context, userID int64) ([]domain.Chat, error) {
	return s.chats.ListForUser(ctx, userID)
}

func (s *chatService) Create(ctx context.Context, creatorID int64, name string) (*domain.Chat, error) {
	chat := &domain.Chat{Name: name}
	if _, err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	if err := s.chats.AddMember(ctx, chat.ID, creatorID); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *chatService) Messages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	return s.messages.ListByChat(ctx, chatID)
}

func (s *chatService) Post(ctx context.Context, chatID, userID int64, text string) (*domain.Message, error) {
	if text == "" {
		return nil, ErrMissingFields
	}

	msg := &domain.Message{
		ChatID: chatID,
		UserID: userID,
		Text:   text,
	}
	if _, err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) AddMember(ctx context.Context, chatID, userID int64) error {
	if _, err := s.chats.Get(ctx, chatID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.chats.AddMember(ctx, chatID, userID)
}

func (s *chatService) RemoveMember(ctx context.Context, chatID, userID int64) error {
	return s.chats.RemoveMember(ctx, chatID, userID)
}

func (s *chatService) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	return s.chats.IsMember(ctx, chatID, userID)
}
