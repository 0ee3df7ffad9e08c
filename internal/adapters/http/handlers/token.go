package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/middleware"
)

// Scopes the token endpoint grants.
const (
	ScopeRead  = "catalog:read"
	ScopeWrite = "catalog:write"
)

var supportedScopes = []string{ScopeRead, ScopeWrite}

// TokenIssuer implements the client credentials grant for one client and
// verifies the tokens it issued.
type TokenIssuer struct {
	clientID     string
	clientSecret string
	ttl          time.Duration
	now          func() time.Time

	mu     sync.Mutex
	tokens map[string]middleware.Claims
}

// NewTokenIssuer creates an issuer for a single registered client.
func NewTokenIssuer(clientID, clientSecret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		clientID:     clientID,
		clientSecret: clientSecret,
		ttl:          ttl,
		now:          time.Now,
		tokens:       make(map[string]middleware.Claims),
	}
}

// Issue handles POST /oauth/token. Credentials are read from HTTP Basic
// auth first, then from the form. An empty scope grants every scope.
func (t *TokenIssuer) Issue(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	var req dto.TokenRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		code := "invalid_request"
		if errors.Is(err, dto.ErrValidation) && req.GrantType != "" {
			code = "unsupported_grant_type"
		}

		c.JSON(http.StatusBadRequest, dto.OAuthError{Error: code})

		return
	}

	id, secret, ok := c.Request.BasicAuth()
	if !ok {
		id, secret = req.ClientID, req.ClientSecret
	}

	if !t.authenticate(id, secret) {
		c.Header("WWW-Authenticate", `Basic realm="oauth"`)
		c.JSON(http.StatusUnauthorized, dto.OAuthError{
			Error:       "invalid_client",
			Description: "Client authentication failed",
		})

		return
	}

	scopes, ok := grantScopes(req.Scope)
	if !ok {
		c.JSON(http.StatusBadRequest, dto.OAuthError{Error: "invalid_scope"})
		return
	}

	token := uuid.NewString()

	t.mu.Lock()
	t.tokens[token] = middleware.Claims{
		ClientID:  id,
		Scopes:    scopes,
		ExpiresAt: t.now().Add(t.ttl),
	}
	t.mu.Unlock()

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(t.ttl.Seconds()),
		Scope:       strings.Join(scopes, " "),
	})
}

// Verify implements middleware.TokenVerifier. Expired tokens are dropped.
func (t *TokenIssuer) Verify(token string) (middleware.Claims, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	claims, ok := t.tokens[token]
	if !ok {
		return middleware.Claims{}, false
	}

	if !t.now().Before(claims.ExpiresAt) {
		delete(t.tokens, token)
		return middleware.Claims{}, false
	}

	return claims, true
}

// Revoke forgets every issued token.
func (t *TokenIssuer) Revoke() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.tokens)
}

func (t *TokenIssuer) authenticate(id, secret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(t.clientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(t.clientSecret)) == 1

	return idOK && secretOK
}

func grantScopes(requested string) ([]string, bool) {
	fields := strings.Fields(requested)
	if len(fields) == 0 {
		return slices.Clone(supportedScopes), true
	}

	for _, s := range fields {
		if !slices.Contains(supportedScopes, s) {
			return nil, false
		}
	}

	slices.Sort(fields)

	return slices.Compact(fields), true
}
