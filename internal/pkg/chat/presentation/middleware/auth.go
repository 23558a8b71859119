package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-recruitchat/internal/infrastructure/identity"
	"go-recruitchat/internal/infrastructure/logging"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

const identityKey = "chat.identity"

// BearerToken extracts the credential from "Authorization: Bearer <token>",
// falling back to the ?token= query parameter browsers use for websockets.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Auth verifies the bearer token and stores the identity on the gin context.
// Requests without a valid token are rejected with 401.
func Auth(v identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Verify(BearerToken(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": AuthErrorMessage(err)})
			return
		}

		c.Set(identityKey, id)
		ctx := logging.WithLogFields(c.Request.Context(), logging.LogFields{UserID: id.UserID, Role: string(id.Role)})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AuthErrorMessage renders a verification failure without token internals.
func AuthErrorMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrMissingToken):
		return "unauthorized: missing token"
	case errors.Is(err, identity.ErrExpiredToken):
		return "unauthorized: token expired"
	}
	return "unauthorized: invalid token"
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *gin.Context) (chat.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return chat.Identity{}, false
	}
	id, ok := v.(chat.Identity)
	return id, ok
}
