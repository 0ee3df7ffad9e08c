package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
)

// ContextKeyClaims is the gin context key for the caller's token claims.
const ContextKeyClaims = "claims"

// Claims describes an issued access token.
type Claims struct {
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time
}

// HasScope reports whether the token was granted scope.
func (c Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// TokenVerifier resolves an access token to its claims. Unknown or
// expired tokens report false.
type TokenVerifier interface {
	Verify(token string) (Claims, bool)
}

// RequireBearer rejects requests without a valid bearer token with the
// 401 body Laravel's auth guard renders.
func RequireBearer(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthenticated(c)
			return
		}

		claims, ok := verifier.Verify(token)
		if !ok {
			abortUnauthenticated(c)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireScope rejects requests whose token lacks scope with a 403.
// Requests that reached it without claims are let through, which is the
// case when the stub runs without auth.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if ok && !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.LaravelError{Message: dto.MessageUnauthorized})
			return
		}

		c.Next()
	}
}

// GetClaims returns the claims stored by RequireBearer.
func GetClaims(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return Claims{}, false
	}

	claims, ok := v.(Claims)

	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func abortUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="catalog"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.LaravelError{Message: dto.MessageUnauthenticated})
}
