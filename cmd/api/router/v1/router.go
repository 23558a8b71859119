package v1

import (
	"github.com/gin-gonic/gin"

	"go-recruitchat/internal/pkg/chat/presentation/controller"
	httpHandler "go-recruitchat/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1 and the
// unversioned health probe at /healthz.
func RegisterRoutes(r *gin.Engine, deps httpHandler.Deps, checks map[string]controller.Pinger) error {
	r.GET("/healthz", controller.NewHealthController(checks).Handle())

	v1 := r.Group("/api/v1")
	// Pass the use cases and realtime router down to the HTTP layer
	return httpHandler.RegisterRoutes(v1, deps)
}
