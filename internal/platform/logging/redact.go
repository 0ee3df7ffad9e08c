package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Attribute keys whose values are never logged. Both the snake_case
// spelling used on the wire and the Go field spelling used when a config
// struct is logged whole are listed.
var secretKeys = []string{
	// OAuth client credentials grant
	"client_secret", "clientSecret", "ClientSecret",
	"access_token", "accessToken", "AccessToken",
	"refresh_token", "refreshToken",
	"token", "Token",

	// HTTP
	"authorization", "Authorization",
	"cookie", "Cookie", "set-cookie", "Set-Cookie",

	// generic
	"password", "secret", "credential", "credentials",
	"api_key", "apiKey", "apikey",
	"private_key", "privateKey",
	"secret_key", "secretKey",
}

var secretPrefixes = []string{"secret", "private"}

// Values that look like credentials regardless of their key.
var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+$`),
	regexp.MustCompile(`(?i)^basic\s+.+$`),
}

// DefaultRedactOptions returns the masq options applied to every handler.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(secretKeys)+len(secretPrefixes)+len(secretValues))

	for _, k := range secretKeys {
		opts = append(opts, masq.WithFieldName(k))
	}

	for _, p := range secretPrefixes {
		opts = append(opts, masq.WithFieldPrefix(p))
	}

	for _, re := range secretValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr that applies
// DefaultRedactOptions plus extra.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), extra...)...)
}
