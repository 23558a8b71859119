package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/protocol"
)

// statusFor maps a chat error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrForbiddenRole), errors.Is(err, chat.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrInvalidState), errors.Is(err, chat.ErrNotJoined):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": protocol.ErrorMessage(err)})
}
