package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"emote-server/internal/domain"
	"emote-server/internal/repository"
)

var (
	// ErrMissingFields indicates a required signup/login field was absent.
	ErrMissingFields = errors.New("missing fields")
	// ErrDuplicateAccount is returned when signing up with an email that is
	// already registered.
	ErrDuplicateAccount = errors.New("account with that email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// responses cannot be used to probe which addresses are registered.
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	// ErrUserNotFound indicates a directory lookup matched no account.
	ErrUserNotFound = errors.New("user not found")
)

const (
	// sessionTTL is mirrored into responses as sessionTTLText.
	sessionTTL     = 48 * time.Hour
	sessionTTLText = "2 days"

	defaultBcryptCost = 12
)

// Session is the payload returned to a freshly authenticated client.
type Session struct {
	User        domain.PublicUser `json:"user"`
	AccessToken string            `json:"access_token"`
	ExpiresIn   string            `json:"expires_in"`
}

// SignupInput carries the fields accepted at account creation. FirstName and
// LastName stay nil when the client omits them.
type SignupInput struct {
	DisplayName string
	Email       string
	Password    string
	FirstName   *string
	LastName    *string
}

// AuthService owns credential handling and token issuance.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// ParseToken validates a bearer token and returns the user id it was
	// issued for.
	ParseToken(token string) (int64, error)
	// UserIDByEmail resolves an email to the account id for directory
	// lookups.
	UserIDByEmail(ctx context.Context, email string) (int64, error)
}

type authService struct {
	users      repository.UserRepository
	signingKey []byte
	bcryptCost int
}

// NewAuthService builds an AuthService around the given user store. The
// signing key is injected here rather than read from ambient process state so
// tests can use fixed keys; cost <= 0 selects the default bcrypt cost.
func NewAuthService(users repository.UserRepository, signingKey string, bcryptCost int) AuthService {
	if bcryptCost <= 0 {
		bcryptCost = defaultBcryptCost
	}
	return &authService{
		users:      users,
		signingKey: []byte(signingKey),
		bcryptCost: bcryptCost,
	}
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if in.DisplayName == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrDuplicateAccount
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		DisplayName:  in.DisplayName,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		// the unique constraint closes the race between the lookup above
		// and a concurrent signup for the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("fetch created user: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("created user %s not found", in.Email)
	}

	return s.issueSession(created[0].Public())
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	users, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrInvalidCredentials
	}

	if !verifyPassword(password, users[0].PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(users[0].Public())
}

func (s *authService) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	users, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("lookup email: %w", err)
	}
	if len(users) == 0 {
		return 0, ErrUserNotFound
	}
	return users[0].ID, nil
}

// issueSession signs a bearer token for the user and wraps it with the public
// user view. It performs no store I/O.
func (s *authService) issueSession(user domain.PublicUser) (*Session, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Session{
		User:        user,
		AccessToken: token,
		ExpiresIn:   sessionTTLText,
	}, nil
}

func (s *authService) ParseToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token subject: %w", err)
	}
	return id, nil
}

func (s *authService) hashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword reports whether the plaintext matches the stored hash. A
// malformed hash counts as a mismatch, not an error.
func verifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
