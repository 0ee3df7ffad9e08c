package dto

import (
	"net/http"
	"strconv"
)

// Summaries used in Laravel error bodies.
const (
	MessageValidation      = "The given data was invalid."
	MessageUnauthenticated = "Unauthenticated."
	MessageUnauthorized    = "This action is unauthorized."
	MessageServerError     = "Server Error"
	MessageTooManyRequests = "Too Many Attempts."
)

// LaravelError is the body Laravel renders for exceptions.
type LaravelError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource points at the offending part of the request.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// ErrorDocument is a JSON:API error document.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// NewErrorDocument builds a single-error document for status.
func NewErrorDocument(status int, code, detail string) *ErrorDocument {
	return &ErrorDocument{Errors: []ErrorObject{{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  http.StatusText(status),
		Detail: detail,
	}}}
}

// NotFoundMessage phrases a missing model the way Laravel does.
func NotFoundMessage(model, id string) string {
	return "No query results for model [App\\Models\\" + model + "] " + id
}

// OAuthError is an RFC 6749 token endpoint error.
type OAuthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// TokenResponse is a successful token endpoint response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// TokenRequest is the client credentials grant form.
type TokenRequest struct {
	GrantType    string `form:"grant_type"    validate:"required,eq=client_credentials"`
	ClientID     string `form:"client_id"`
	ClientSecret string `form:"client_secret"`
	Scope        string `form:"scope"`
}
