package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/civic-backend/internal/identity"
	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
	"github.com/ignatzorin/civic-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   *identity.TokenVerifier
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер.
func NewWSHandler(hub *ws.Hub, tokens *identity.TokenVerifier, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	principal, err := h.tokens.ParseAccess(rawToken)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	// Upgrade сам пишет ответ об ошибке.
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(conn, h.hub, principal.UserID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}

// originChecker пропускает запросы без Origin и из разрешённых источников.
// Пустой список разрешает всё (dev).
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
