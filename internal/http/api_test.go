package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"emote-server/internal/repository/sqlite"
	"emote-server/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "emote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := t.Context()
	userRepo := sqlite.NewUserRepository(db)
	chatRepo := sqlite.NewChatRepository(db)
	messageRepo := sqlite.NewMessageRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, chatRepo.Init(ctx))
	require.NoError(t, messageRepo.Init(ctx))

	authService := service.NewAuthService(userRepo, "test-secret", bcrypt.MinCost)
	chatService := service.NewChatService(chatRepo, messageRepo, userRepo)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	handler := NewHandler(authService, chatService, logger)
	handler.RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func signupUser(t *testing.T, router *gin.Engine, displayName, email, password string) (int64, string) {
	t.Helper()
	rec := doRequest(router, http.MethodPost, "/api/signup", "", gin.H{
		"display_name": displayName,
		"email":        email,
		"password":     password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	return int64(user["id"].(float64)), body["access_token"].(string)
}

func TestSignupReturnsSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/api/signup", "", gin.H{
		"display_name": "manos",
		"email":        "user@gmail.com",
		"password":     "gmail",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "2 days", body["expires_in"])
	assert.NotEmpty(t, body["access_token"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "manos", user["display_name"])
	assert.Equal(t, "user@gmail.com", user["email"])
	assert.Nil(t, user["first_name"])
	assert.Nil(t, user["last_name"])
	assert.GreaterOrEqual(t, user["id"].(float64), float64(1))

	// the credential hash must never appear anywhere in the payload
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSignupMissingFields(t *testing.T) {
	router := newTestRouter(t)

	for _, body := range []any{
		nil,
		gin.H{"email": "user@gmail.com", "password": "gmail"},
		gin.H{"display_name": "manos", "password": "gmail"},
		gin.H{"display_name": "manos", "email": "user@gmail.com"},
	} {
		rec := doRequest(router, http.MethodPost, "/api/signup", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing fields", decodeBody(t, rec)["message"])
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	signupUser(t, router, "manos", "user@gmail.com", "gmail")

	rec := doRequest(router, http.MethodPost, "/api/signup", "", gin.H{
		"display_name": "someone else",
		"email":        "user@gmail.com",
		"password":     "other",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Account with that email already exists", decodeBody(t, rec)["message"])
}

func TestLoginAfterSignup(t *testing.T) {
	router := newTestRouter(t)
	signupUser(t, router, "manos", "user@gmail.com", "gmail")

	rec := doRequest(router, http.MethodPost, "/api/login", "", gin.H{
		"email":    "user@gmail.com",
		"password": "gmail",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "2 days", body["expires_in"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "manos", user["display_name"])
	assert.Equal(t, "user@gmail.com", user["email"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	router := newTestRouter(t)
	signupUser(t, router, "manos", "user@gmail.com", "gmail")

	unknownEmail := doRequest(router, http.MethodPost, "/api/login", "", gin.H{
		"email":    "user@yahoo.com",
		"password": "gmail",
	})
	wrongPassword := doRequest(router, http.MethodPost, "/api/login", "", gin.H{
		"email":    "user@gmail.com",
		"password": "yahoo",
	})

	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, unknownEmail.Body.String(), wrongPassword.Body.String())
	assert.Equal(t, "Email or password is incorrect", decodeBody(t, wrongPassword)["message"])
}

func TestLoginMissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/api/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing fields", decodeBody(t, rec)["message"])
}

func TestBearerTokenRequired(t *testing.T) {
	router := newTestRouter(t)

	for _, token := range []string{"", "garbage"} {
		rec := doRequest(router, http.MethodGet, "/api/chat", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid/missing token", decodeBody(t, rec)["message"])
	}
}

func TestUserLookupByEmail(t *testing.T) {
	router := newTestRouter(t)
	id, token := signupUser(t, router, "manos", "user@gmail.com", "gmail")

	rec := doRequest(router, http.MethodGet, "/api/user/user@gmail.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(id), decodeBody(t, rec)["id"])

	rec = doRequest(router, http.MethodGet, "/api/user/nobody@example.com", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody(t, rec)["message"])
}

func TestChatMembershipFlow(t *testing.T) {
	router := newTestRouter(t)
	_, creatorToken := signupUser(t, router, "manos", "user@gmail.com", "gmail")
	otherID, otherToken := signupUser(t, router, "bob", "test123@yahoo.com", "yahoo")

	// creator makes a chat and is enrolled automatically
	rec := doRequest(router, http.MethodPost, "/api/chat", creatorToken, gin.H{"name": "general"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	chatID := int64(decodeBody(t, rec)["id"].(float64))

	rec = doRequest(router, http.MethodGet, "/api/chat", creatorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var chats []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "general", chats[0]["name"])

	chatPath := fmt.Sprintf("/api/chat/%d", chatID)

	// non-members cannot see or post
	rec = doRequest(router, http.MethodGet, chatPath, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not a member of this chat", decodeBody(t, rec)["message"])

	// creator adds the second user
	rec = doRequest(router, http.MethodPost, fmt.Sprintf("%s/users/%d", chatPath, otherID), creatorToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// member posts and reads messages
	rec = doRequest(router, http.MethodPost, chatPath+"/message", otherToken, gin.H{"text": "here's a message"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(router, http.MethodGet, chatPath, otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "here's a message", msgs[0]["text"])
	author := msgs[0]["user"].(map[string]any)
	assert.Equal(t, "bob", author["display_name"])
	assert.NotContains(t, rec.Body.String(), "password")

	// empty message body is rejected
	rec = doRequest(router, http.MethodPost, chatPath+"/message", otherToken, gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// removal revokes access
	rec = doRequest(router, http.MethodDelete, fmt.Sprintf("%s/users/%d", chatPath, otherID), creatorToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodGet, chatPath, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
