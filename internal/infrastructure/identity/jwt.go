package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the token body issued by the auth service.
type Claims struct {
	UserID string    `json:"userId"`
	Role   chat.Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier resolves a credential into the identity attached to a connection.
type Verifier interface {
	Verify(token string) (chat.Identity, error)
}

// JWTVerifier checks HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify validates signature and expiry, then extracts {userId, role}.
func (v *JWTVerifier) Verify(tokenString string) (chat.Identity, error) {
	if tokenString == "" {
		return chat.Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return chat.Identity{}, ErrExpiredToken
		}
		return chat.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return chat.Identity{}, ErrInvalidToken
	}

	if claims.UserID == "" {
		return chat.Identity{}, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return chat.Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return chat.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// Generate signs a token for id. It is used by tests and local tooling; the
// auth service issues production tokens.
func (v *JWTVerifier) Generate(id chat.Identity, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: id.UserID,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
