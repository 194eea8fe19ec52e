package middleware

import (
	"net/http"
	"strings"

	"karya/internal/api"
	"karya/internal/logger"

	"github.com/gin-gonic/gin"
)

const ownerKey = "owner_id"

// TokenParser resolves a bearer token to an owner id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// JWT authenticates "Authorization: Bearer <token>" and stores the owner id,
// standing in for the API Gateway authorizer.
func JWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorBody{Message: api.MsgUnauthorized, Error: "missing bearer token"})
			return
		}

		owner, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorBody{Message: api.MsgUnauthorized, Error: err.Error()})
			return
		}

		c.Set(ownerKey, owner)
		ctx := logger.NewContext(c.Request.Context(), logger.WithContext(c.Request.Context()).With(ownerKey, owner))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OwnerID returns the authenticated owner, or "" when JWT did not run.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
