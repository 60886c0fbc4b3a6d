package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ctxUserID = "userID"
	ctxChatID = "chatID"
)

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

// requireAuth validates the bearer token and stores the caller's user id in
// the request context.
func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msgBadToken})
		return
	}

	userID, err := h.auth.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msgBadToken})
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}

// requireMembership rejects callers that are not members of the chat named in
// the route. Runs after requireAuth.
func (h *Handler) requireMembership(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("cid"), 10, 64)
	if err != nil || chatID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid chat id"})
		return
	}

	member, err := h.chats.IsMember(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		h.logger.WithError(err).Error("membership check failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}
	if !member {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msgNotMember})
		return
	}

	c.Set(ctxChatID, chatID)
	c.Next()
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func currentChatID(c *gin.Context) int64 {
	return c.GetInt64(ctxChatID)
}
