package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/application/usecase"
	"go-recruitchat/internal/pkg/chat/presentation/middleware"
	"go-recruitchat/internal/pkg/chat/protocol"
)

// GetConversationController handles reading one conversation with its messages (one controller per endpoint)
type GetConversationController struct {
	UC *usecase.GetConversationUseCase
}

func NewGetConversationController(uc *usecase.GetConversationUseCase) *GetConversationController {
	return &GetConversationController{UC: uc}
}

type conversationResponse struct {
	ID           string                    `json:"id"`
	CandidateID  string                    `json:"candidateId"`
	SupervisorID string                    `json:"supervisorId"`
	AgentID      *string                   `json:"agentId"`
	Status       chat.Status               `json:"status"`
	CreatedAt    time.Time                 `json:"createdAt"`
	Messages     []protocol.MessagePayload `json:"messages"`
	Count        int                       `json:"count"`
}

func (h *GetConversationController) Handle() gin.HandlerFunc {
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

		view, err := h.UC.Execute(c.Request.Context(), usecase.GetConversationInput{
			Identity:       who,
			ConversationID: conversationID,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		conv := view.Conversation
		c.JSON(http.StatusOK, conversationResponse{
			ID:           conv.ID,
			CandidateID:  conv.CandidateID,
			SupervisorID: conv.SupervisorID,
			AgentID:      conv.AgentID,
			Status:       conv.Status,
			CreatedAt:    conv.CreatedAt,
			Messages:     protocol.ToMessagePayloads(view.Messages),
			Count:        len(view.Messages),
		})
	}
}
