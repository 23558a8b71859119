package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-recruitchat/internal/pkg/chat/application/usecase"
	"go-recruitchat/internal/pkg/chat/presentation/middleware"
)

// CloseConversationController handles the administrative close endpoint
// One controller per endpoint
type CloseConversationController struct {
	UC *usecase.CloseConversationUseCase
}

func NewCloseConversationController(uc *usecase.CloseConversationUseCase) *CloseConversationController {
	return &CloseConversationController{UC: uc}
}

func (h *CloseConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}
		who, ok := middleware.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing token"})
			return
		}

		conv, err := h.UC.Abandon(c.Request.Context(), usecase.AbandonConversationInput{
			Identity:       who,
			ConversationID: conversationID,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"conversationId": conv.ID,
			"status":         conv.Status,
		})
	}
}
