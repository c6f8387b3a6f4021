package handler

import (
	"net/http"

	"boutique/internal/apierror"
	"boutique/internal/middleware"
	"boutique/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Websocket authenticates with ?token= (browsers cannot set headers on the
// upgrade request) and attaches the peer to the hub.
func Websocket(hub *realtime.Hub, secret string, origins []string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
		},
	}

	return func(c *gin.Context) {
		claims, err := middleware.ParseToken(secret, c.Query("token"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.WithCode(apierror.CodeUnauthorized, "invalid or expired token"))
			return
		}
		if err := hub.Serve(c.Writer, c.Request, upgrader, claims.UserID); err != nil {
			// Upgrade already wrote the HTTP error.
			log.Debug().Err(err).Msg("websocket upgrade failed")
		}
	}
}
