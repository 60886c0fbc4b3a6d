package repository

import (
	"context"
	"errors"

	"emote-server/internal/domain"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail indicates an insert violated the unique email constraint.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// FindByEmail returns every user with the given email. An empty slice is
	// not an error.
	FindByEmail(ctx context.Context, email string) ([]domain.User, error)
	Insert(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
