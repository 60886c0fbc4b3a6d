package domain

import "time"

// Chat is a conversation that users can join and post messages to.
type Chat struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Message is a single post within a chat. Author carries the public view of
// the posting user when loaded through a listing query.
type Message struct {
	ID        int64
	ChatID    int64
	UserID    int64
	Text      string
	CreatedAt time.Time
	Author    PublicUser
}
