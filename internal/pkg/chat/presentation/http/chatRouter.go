package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"go-recruitchat/internal/infrastructure/identity"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/pkg/chat/application/usecase"
	"go-recruitchat/internal/pkg/chat/presentation/controller"
	"go-recruitchat/internal/pkg/chat/presentation/middleware"
)

// Deps are the collaborators the chat endpoints are built from.
type Deps struct {
	Router   *realtime.Router
	Verifier identity.Verifier
	Logger   *slog.Logger

	Join  *usecase.JoinConversationUseCase
	Send  *usecase.SendMessageUseCase
	Leave *usecase.LeaveConversationUseCase
	Close *usecase.CloseConversationUseCase
	Get   *usecase.GetConversationUseCase

	ReadTimeout time.Duration
	SendBuffer  int
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Deps) error {
	socketCtl, err := controller.NewChatSocketController(controller.SocketDeps{
		Router:      d.Router,
		Verifier:    d.Verifier,
		Join:        d.Join,
		Send:        d.Send,
		Leave:       d.Leave,
		Close:       d.Close,
		Logger:      d.Logger,
		ReadTimeout: d.ReadTimeout,
		SendBuffer:  d.SendBuffer,
	})
	if err != nil {
		return err
	}
	getCtl := controller.NewGetConversationController(d.Get)
	closeCtl := controller.NewCloseConversationController(d.Close)

	// GET /api/v1/ws -> websocket endpoint, authenticated per connection
	g.GET("/ws", socketCtl.Handle())

	auth := g.Group("/conversations", middleware.Auth(d.Verifier))

	// GET /api/v1/conversations/:conversationId -> conversation with its messages
	auth.GET("/:conversationId", getCtl.Handle())

	// POST /api/v1/conversations/:conversationId/close -> administrative close
	auth.POST("/:conversationId/close", closeCtl.Handle())
	return nil
}
