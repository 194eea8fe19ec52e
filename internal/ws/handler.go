package ws

import (
	"net/http"

	"karya/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser resolves a bearer token to an owner id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// HandleWS upgrades the request and subscribes the token's owner to
// reminder frames. Browsers cannot set headers on websocket requests, so the
// token travels in the query string.
func HandleWS(hub *Hub, tokens TokenParser, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "error": "token required"})
			return
		}

		ownerID, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(ownerID, conn, hub)
		go client.Run()
	}
}
