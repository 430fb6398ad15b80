// Package auth resolves the acting user of a request and holds the single
// ownership rule used by every service.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHeader carries the user id forwarded by the gateway after it has
// verified the caller's token
const UserHeader = "X-User-ID"

const userKey = "auth.user"

// UserLookup loads users by id
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// CanAccess reports whether actor may act on a resource owned by ownerID
func CanAccess(actor *models.User, ownerID int64) bool {
	return actor != nil && (actor.IsAdmin() || actor.ID == ownerID)
}

// Middleware loads the acting user from UserHeader and aborts with 401 when
// the header is missing or names no user
func Middleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(UserHeader), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid user identity.",
			})
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				util.GetLogger().Error("Failed to load acting user", zap.Int64("user_id", id), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Unknown user.",
			})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by Middleware
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
