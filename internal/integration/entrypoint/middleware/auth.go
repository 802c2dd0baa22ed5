// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
)

// DispatchSecretHeader carries the shared secret of internal endpoints.
const DispatchSecretHeader = "X-Dispatch-Secret"

const callerKey = "caller"

// AuthMiddleware resolves bearer tokens into the calling account.
type AuthMiddleware struct {
	tokens adapter.AccessTokens
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(tokens adapter.AccessTokens) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate rejects requests without a valid bearer token and exposes the
// claims through Caller.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code := bearerToken(c.GetHeader("Authorization"))
		if code != "" {
			unauthorized(c, "Authorization header must be 'Bearer <token>'", code)
			return
		}

		claims, err := m.tokens.Verify(c.Request.Context(), token)
		if err != nil {
			unauthorized(c, "Invalid or expired token", domainerror.ErrCodeInvalidToken)
			return
		}

		SetCaller(c, claims)
		c.Next()
	}
}

// RequireDispatchSecret guards internal endpoints with a shared secret header.
// An empty secret disables the endpoints entirely.
func RequireDispatchSecret(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(DispatchSecretHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			unauthorized(c, "Unauthorized", domainerror.ErrCodeForbidden)
			return
		}
		c.Next()
	}
}

// SetCaller records the authenticated account on the request.
func SetCaller(c *gin.Context, claims *adapter.AccessClaims) {
	c.Set(callerKey, claims)
}

// Caller returns the account set by Authenticate.
func Caller(c *gin.Context) (*adapter.AccessClaims, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*adapter.AccessClaims)
	return claims, ok && claims != nil
}

func bearerToken(header string) (string, domainerror.AuthErrorCode) {
	if header == "" {
		return "", domainerror.ErrCodeMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", domainerror.ErrCodeInvalidToken
	}
	return token, ""
}

func unauthorized(c *gin.Context, msg string, code domainerror.AuthErrorCode) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: msg,
		Code:  string(code),
	})
}
