package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"emote-server/internal/domain"
	"emote-server/internal/repository"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMessagesTable); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) (int64, error) {
	msg.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO messages (chat_id, user_id, text, created_at)
VALUES (?, ?, ?, ?)`,
		msg.ChatID,
		msg.UserID,
		msg.Text,
		msg.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("message last insert id: %w", err)
	}
	msg.ID = id
	return id, nil
}

func (r *MessageRepository) ListByChat(ctx context.Context, chatID int64) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.chat_id, m.user_id, m.text, m.created_at,
	u.id, u.display_name, u.email, u.first_name, u.last_name
FROM messages m
JOIN users u ON u.id = m.user_id
WHERE m.chat_id = ?
ORDER BY m.created_at DESC, m.id DESC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.UserID,
			&msg.Text,
			&msg.CreatedAt,
			&msg.Author.ID,
			&msg.Author.DisplayName,
			&msg.Author.Email,
			&msg.Author.FirstName,
			&msg.Author.LastName,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}
