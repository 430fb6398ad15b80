package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubUsers map[int64]*models.User

func (s stubUsers) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func TestCanAccess(t *testing.T) {
	owner := &models.User{ID: 1}
	other := &models.User{ID: 2}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	assert.True(t, CanAccess(owner, 1))
	assert.False(t, CanAccess(other, 1))
	assert.True(t, CanAccess(admin, 1))
	assert.False(t, CanAccess(nil, 1))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware(stubUsers{7: {ID: 7, Username: "alice"}}))
	router.GET("/whoami", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.Username)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not a number", "abc", http.StatusUnauthorized},
		{"unknown user", "8", http.StatusUnauthorized},
		{"known user", "7", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "alice", w.Body.String())
			}
		})
	}
}
