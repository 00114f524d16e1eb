package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
)

const accountIDKey = "account_id"

// AccountMiddleware extracts the tenant scope from the X-Account-ID header.
// Authentication happens upstream of this service; by the time a request
// lands here the header is trusted.
type AccountMiddleware struct {
	log *logger.Logger
}

func NewAccountMiddleware(baseLog *logger.Logger) *AccountMiddleware {
	return &AccountMiddleware{log: baseLog.With("middleware", "AccountMiddleware")}
}

func (m *AccountMiddleware) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Account-ID")
		accountID, err := uuid.Parse(raw)
		if err != nil || accountID == uuid.Nil {
			m.log.Warn("Request missing account scope", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"message": "missing or invalid X-Account-ID header", "code": "account_scope_required"},
			})
			return
		}
		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// AccountID returns the tenant scope set by RequireAccount.
func AccountID(c *gin.Context) (uuid.UUID, error) {
	val, ok := c.Get(accountIDKey)
	if !ok {
		return uuid.Nil, errors.New("account scope not set")
	}
	accountID, ok := val.(uuid.UUID)
	if !ok || accountID == uuid.Nil {
		return uuid.Nil, errors.New("account scope not set")
	}
	return accountID, nil
}
