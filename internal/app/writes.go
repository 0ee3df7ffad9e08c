package app

import (
	"context"
	"fmt"
	"strings"

	reqctx "github.com/jsamuelsen/cardsdk/internal/app/context"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

// writeInput is what the write pipeline operates on.
type writeInput struct {
	resource ports.ResourceGateway
	id       string
	attrs    map[string]any
}

// Create creates a resource. Client-side rule violations and server 422s
// both surface as *domain.ValidationError.
func (c *Catalog) Create(ctx context.Context, typeName string, attrs map[string]any) (domain.Model, error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	if attrs == nil {
		attrs = map[string]any{}
	}

	op := c.writeOperation("create "+r.Kind(), nil,
		func(ctx context.Context, in writeInput) (domain.Model, error) {
			return in.resource.Create(ctx, in.attrs)
		},
	)

	return Execute(ctx, c.exec, op, writeInput{resource: r, attrs: attrs})
}

// Update patches the given attributes of a resource.
func (c *Catalog) Update(ctx context.Context, typeName, id string, attrs map[string]any) (domain.Model, error) {
	r, err := c.Resource(typeName)
	if err != nil {
		return nil, err
	}

	op := c.writeOperation("update "+r.Kind(), validateUpdate,
		func(ctx context.Context, in writeInput) (domain.Model, error) {
			return in.resource.Update(ctx, in.id, in.attrs)
		},
	)

	return Execute(ctx, c.exec, op, writeInput{resource: r, id: id, attrs: attrs})
}

// Delete removes a resource and drops it from the request cache.
func (c *Catalog) Delete(ctx context.Context, typeName, id string) error {
	r, err := c.Resource(typeName)
	if err != nil {
		return err
	}

	if err := r.Delete(ctx, id); err != nil {
		return err
	}

	if rc := reqctx.FromContext(ctx); rc != nil {
		rc.Forget(r.Kind(), id)
	}

	return nil
}

func (c *Catalog) writeOperation(
	name string,
	validate func(context.Context, writeInput) error,
	perform func(context.Context, writeInput) (domain.Model, error),
) Operation[writeInput, domain.Model, domain.Model, domain.Model] {
	return Operation[writeInput, domain.Model, domain.Model, domain.Model]{
		Name:     name,
		Validate: validate,
		Perform:  perform,
		Verify:   verifyWritten,
		Archive:  archiveWritten,
		Respond: func(_ context.Context, _ writeInput, m domain.Model) (domain.Model, error) {
			return m, nil
		},
	}
}

func validateUpdate(_ context.Context, in writeInput) error {
	var subs []domain.SubError

	if strings.TrimSpace(in.id) == "" {
		subs = append(subs, invalidField("id", "The id field is required."))
	}

	if len(in.attrs) == 0 {
		subs = append(subs, invalidField("attributes", "At least one attribute must be given."))
	}

	if len(subs) == 0 {
		return nil
	}

	return domain.NewValidationError(domain.Fields{
		Message:   "The given data was invalid.",
		APIErrors: subs,
		Context:   map[string]any{"kind": in.resource.Kind(), "client_side": true},
	})
}

// verifyWritten checks that the echoed resource is the written one.
func verifyWritten(_ context.Context, in writeInput, m domain.Model) (domain.Model, error) {
	if m == nil || m.Base() == nil {
		return nil, domain.NewDeserializationError("Response contained no resource", nil)
	}

	base := m.Base()

	if base.ID == "" {
		return nil, domain.NewDeserializationError(fmt.Sprintf("%s resource has no id", base.Type), nil)
	}

	if in.id != "" && base.ID != in.id {
		return nil, domain.NewDeserializationError(
			fmt.Sprintf("Expected %s %q, got %q", in.resource.Kind(), in.id, base.ID), nil)
	}

	if base.Kind != "" && base.Kind != in.resource.Kind() {
		return nil, domain.NewDeserializationError(fmt.Sprintf("Unexpected resource type %q", base.Type), nil)
	}

	return m, nil
}

// archiveWritten replaces stale cache entries with the written model.
func archiveWritten(ctx context.Context, in writeInput, m domain.Model) error {
	rc := reqctx.FromContext(ctx)
	if rc == nil {
		return nil
	}

	kind, id := in.resource.Kind(), m.Base().ID
	rc.Forget(kind, id)

	_, err := rc.GetOrFetch(ctx, reqctx.Key(kind, id), func(context.Context) (any, error) {
		return m, nil
	})

	return err
}

func invalidField(field, msg string) domain.SubError {
	return domain.SubError{
		Title:  "Validation Error",
		Detail: msg,
		Source: &domain.Source{Parameter: field},
	}
}
