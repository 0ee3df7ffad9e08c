// Package acl is the boundary between the catalog API and the SDK's
// domain. Nothing that crosses it leaks wire details: success bodies become
// linked domain models and every failure becomes exactly one typed
// exception from the domain package.
//
// # Components
//
//   - [ClassifyHTTPResponse] and [ClassifyResponse]: map a non-2xx
//     exchange to an exception, probing the body for a message and
//     structured sub-errors
//   - [ClassifyTransportFailure]: map a failure without a response to a
//     network exception flavour (timeout, refused, DNS, TLS, generic)
//   - [MapClientError]: translate transport sentinels and token failures
//     before falling back to transport classification
//   - [NewNotFound]: pick the resource-specific not-found error
//   - [ValidateAttributes]: client-side payload checks shaped like a 422
//   - [CatalogAdapter] and [Resource]: typed access to each collection
//
// # Status mapping
//
//   - 401 → [domain.AuthenticationError]
//   - 403 → [domain.AuthorizationError]
//   - 404 → [domain.NotFoundError], or the card/player/set variant when
//     the caller knows what it asked for
//   - 422 → [domain.ValidationError]
//   - 429 → [domain.RateLimitError]
//   - 5xx → [domain.ServerError]
//   - anything else → [domain.APIError]
//
// Network, rate-limit and server errors are retryable in the
// github.com/jmgilman/go/errors sense; the rest are permanent.
//
// Example:
//
//	catalog := acl.NewCatalogAdapter(client, acl.CatalogOptions{
//	    Schemas: domain.NewStaticSchemas(),
//	})
//
//	m, err := catalog.Cards().Get(ctx, "42", "set")
//	var missing *domain.CardNotFoundError
//	if errors.As(err, &missing) {
//	    // ...
//	}
//	card, err := acl.As[*domain.Card](m)
package acl
