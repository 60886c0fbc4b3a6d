package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"emote-server/internal/domain"
	"emote-server/internal/repository"
)

const (
	createChatsTable = `
CREATE TABLE IF NOT EXISTS chats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`
	createChatUsersTable = `
CREATE TABLE IF NOT EXISTS chat_users (
	chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	added_at DATETIME NOT NULL,
	PRIMARY KEY (chat_id, user_id)
);
`
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) repository.ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createChatsTable); err != nil {
		return fmt.Errorf("create chats table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createChatUsersTable); err != nil {
		return fmt.Errorf("create chat_users table: %w", err)
	}
	return nil
}

func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) (int64, error) {
	chat.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO chats (name, created_at)
VALUES (?, ?)`,
		chat.Name,
		chat.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert chat: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("chat last insert id: %w", err)
	}
	chat.ID = id
	return id, nil
}

func (r *ChatRepository) Get(ctx context.Context, id int64) (*domain.Chat, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, created_at
FROM chats
WHERE id = ?`,
		id,
	)

	var chat domain.Chat
	if err := row.Scan(&chat.ID, &chat.Name, &chat.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan chat: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.name, c.created_at
FROM chats c
JOIN chat_users cu ON cu.chat_id = c.id
WHERE cu.user_id = ?
ORDER BY c.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chats for user: %w", err)
	}
	defer rows.Close()

	chats := []domain.Chat{}
	for rows.Next() {
		var chat domain.Chat
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

func (r *ChatRepository) AddMember(ctx context.Context, chatID, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO chat_users (chat_id, user_id, added_at)
VALUES (?, ?, ?)`,
		chatID,
		userID,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("add chat member: %w", err)
	}
	return nil
}

func (r *ChatRepository) RemoveMember(ctx context.Context, chatID, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM chat_users
WHERE chat_id = ? AND user_id = ?`,
		chatID,
		userID,
	); err != nil {
		return fmt.Errorf("remove chat member: %w", err)
	}
	return nil
}

func (r *ChatRepository) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT 1
FROM chat_users
WHERE chat_id = ? AND user_id = ?`,
		chatID,
		userID,
	)

	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan chat membership: %w", err)
	}
	return true, nil
}
