package clients

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jsamuelsen/cardsdk/internal/platform/config"
)

// NewTokenSource returns a cached client-credentials token source, or nil
// when OAuth is disabled. Tokens are reused until they near expiry and are
// then fetched again on the next request.
//
// httpClient is used for token requests; pass the transport's plain client
// so token calls share its connection pool and timeout.
func NewTokenSource(ctx context.Context, cfg config.OAuthConfig, httpClient *http.Client) oauth2.TokenSource {
	if !cfg.Enabled {
		return nil
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	// clientcredentials already wraps the source in oauth2.ReuseTokenSource.
	return cc.TokenSource(ctx)
}
