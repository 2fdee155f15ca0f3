package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerIDKey is the key used to store the authenticated owner id in the context
const OwnerIDKey = "owner_id"

var (
	ErrMissingToken = errors.New("authorization token required")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingOwner = errors.New("token does not identify a user")
)

// Claims are the session token claims. The owner is taken from "id" and falls back to "sub".
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// OwnerID returns the id of the user the token was issued to
func (c *Claims) OwnerID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// TokenVerifier validates HMAC signed session tokens
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for tokens signed with secret
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses the token and returns the owner id it carries
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	ownerID := claims.OwnerID()
	if ownerID == "" {
		return "", ErrMissingOwner
	}
	return ownerID, nil
}

// Auth middleware resolves the owner from a bearer token, or from the session cookie when no
// Authorization header is sent, and rejects the request otherwise
func Auth(logger *slog.Logger, verifier *TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c, cookieName)
		if err == nil {
			var ownerID string
			ownerID, err = verifier.Verify(tokenString)
			if err == nil {
				c.Set(OwnerIDKey, ownerID)
				c.Next()
				return
			}
		}

		logger.Info("Rejected unauthenticated request",
			"path", c.Request.URL.Path,
			"correlation_id", GetCorrelationID(c),
			"reason", err.Error(),
		)
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
}

func extractToken(c *gin.Context, cookieName string) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(token), nil
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

// GetOwnerID retrieves the authenticated owner id from the gin context if present
func GetOwnerID(c *gin.Context) string {
	if id, exists := c.Get(OwnerIDKey); exists {
		if ownerID, ok := id.(string); ok {
			return ownerID
		}
	}
	return ""
}
