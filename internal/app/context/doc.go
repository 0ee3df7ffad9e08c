// Package context provides request-scoped memoization of catalog reads.
//
// A RequestContext is attached to a context.Context for the duration of one
// logical operation. Reads made through the app.Catalog while it is
// attached are cached by kind, id and include list, and concurrent reads of
// the same resource share one round trip:
//
//	rc := context.New(ctx)
//	ctx = context.WithContext(ctx, rc)
//
//	card, _ := catalog.Get(ctx, "cards", "42", "set")
//	again, _ := catalog.Get(ctx, "cards", "42", "set") // served from rc
//
// Writes through the catalog call Forget for the written resource so a
// later read in the same scope sees the new state. Errors are never cached.
package context
