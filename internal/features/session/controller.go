package session

import (
	"context"

	"go-dashboard/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type SessionController struct {
	Hub *Hub
	log *zap.Logger
}

func NewSessionController(hub *Hub, log *zap.Logger) *SessionController {
	return &SessionController{Hub: hub, log: log}
}

// HandleWebSocket serves one builder tab until it disconnects.
func (h *SessionController) HandleWebSocket(c *websocket.Conn) {
	claims, _ := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)

	s := h.Hub.NewSession(c, claims)
	h.log.Info("Session connected", zap.String("sessionId", s.ID()), zap.Bool("authenticated", claims != nil))

	if err := s.Run(context.Background()); err != nil {
		h.log.Warn("Session ended with error", zap.String("sessionId", s.ID()), zap.Error(err))
	}
}
