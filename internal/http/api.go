package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"emote-server/internal/domain"
	"emote-server/internal/service"
)

const (
	msgMissingFields    = "Missing fields"
	msgDuplicateAccount = "Account with that email already exists"
	msgBadCredentials   = "Email or password is incorrect"
	msgBadToken         = "Invalid/missing token"
	msgNotMember        = "Not a member of this chat"
	msgUserNotFound     = "User not found"
	msgInternal         = "Internal server error"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth   service.AuthService
	chats  service.ChatService
	logger *logrus.Logger
}

func NewHandler(auth service.AuthService, chats service.ChatService, logger *logrus.Logger) *Handler {
	return &Handler{
		auth:   auth,
		chats:  chats,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/signup", h.signup)
		api.POST("/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("", h.requireAuth)
		{
			authed.GET("/user/:email", h.userIDByEmail)

			chat := authed.Group("/chat")
			chat.GET("", h.listChats)
			chat.POST("", h.createChat)

			member := chat.Group("/:cid", h.requireMembership)
			member.GET("", h.listMessages)
			member.POST("/message", h.postMessage)
			member.POST("/users/:uid", h.addUserToChat)
			member.DELETE("/users/:uid", h.removeUserFromChat)
		}
	}
}

type signupRequest struct {
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
		return
	}

	session, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		h.authError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// authError maps the expected auth outcomes to their status codes and hides
// everything else behind a generic 500.
func (h *Handler) authError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
	case errors.Is(err, service.ErrDuplicateAccount):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgDuplicateAccount})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": msgBadCredentials})
	default:
		h.logger.WithError(err).Error("auth request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
	}
}

func (h *Handler) userIDByEmail(c *gin.Context) {
	id, err := h.auth.UserIDByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": msgUserNotFound})
			return
		}
		h.logger.WithError(err).Error("user lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

type chatResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type messageResponse struct {
	ID        int64             `json:"id"`
	Text      string            `json:"text"`
	CreatedAt string            `json:"created_at"`
	User      domain.PublicUser `json:"user"`
}

func chatToResponse(chat domain.Chat) chatResponse {
	return chatResponse{
		ID:        chat.ID,
		Name:      chat.Name,
		CreatedAt: chat.CreatedAt.Format(time.RFC3339),
	}
}

func messageToResponse(msg domain.Message) messageResponse {
	return messageResponse{
		ID:        msg.ID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		User:      msg.Author,
	}
}

func (h *Handler) listChats(c *gin.Context) {
	chats, err := h.chats.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.logger.WithError(err).Error("list chats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	resp := make([]chatResponse, len(chats))
	for i := range chats {
		resp[i] = chatToResponse(chats[i])
	}
	c.JSON(http.StatusOK, resp)
}

type createChatRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createChat(c *gin.Context) {
	// body is optional; an unnamed chat is allowed
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
		return
	}

	chat, err := h.chats.Create(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		h.logger.WithError(err).Error("create chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	c.JSON(http.StatusCreated, chatToResponse(*chat))
}

func (h *Handler) listMessages(c *gin.Context) {
	msgs, err := h.chats.Messages(c.Request.Context(), currentChatID(c))
	if err != nil {
		h.logger.WithError(err).Error("list messages failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	resp := make([]messageResponse, len(msgs))
	for i := range msgs {
		resp[i] = messageToResponse(msgs[i])
	}
	c.JSON(http.StatusOK, resp)
}

type createMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) postMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
		return
	}

	msg, err := h.chats.Post(c.Request.Context(), currentChatID(c), currentUserID(c), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
			return
		}
		h.logger.WithError(err).Error("post message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": msg.ID})
}

func (h *Handler) addUserToChat(c *gin.Context) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	if err := h.chats.AddMember(c.Request.Context(), currentChatID(c), uid); err != nil {
		switch {
		case errors.Is(err, service.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": msgUserNotFound})
		default:
			h.logger.WithError(err).Error("add chat member failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		}
		return
	}

	c.Status(http.StatusCreated)
}

func (h *Handler) removeUserFromChat(c *gin.Context) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil || uid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	if err := h.chats.RemoveMember(c.Request.Context(), currentChatID(c), uid); err != nil {
		h.logger.WithError(err).Error("remove chat member failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	c.Status(http.StatusNoContent)
}
