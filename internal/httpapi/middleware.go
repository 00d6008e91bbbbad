package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/internal/common"
)

const userIDKey = "userID"

type TokenVerifier interface {
	UserID(header string) (uuid.UUID, error)
}

// JWTAuth rejects requests without a valid bearer token and puts the
// requester on both the gin and the request context.
func JWTAuth(v TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.UserID(c.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("http.auth.rejected", "path", c.FullPath(), "err", err)
			fail(c, common.AuthorizationError("invalid or missing bearer token"))
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), userID.String()))
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Header("X-Request-ID", reqID)
		c.Next()
		logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"req_id", reqID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func requester(c *gin.Context) uuid.UUID {
	v, _ := c.Get(userIDKey)
	id, _ := v.(uuid.UUID)
	return id
}
