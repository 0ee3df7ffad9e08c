package jsonapi

import (
	"encoding/json"
	"fmt"
)

type requestDocument struct {
	Data requestResource `json:"data"`
}

type requestResource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// EncodeResource renders a create or update document. id is omitted for
// creates.
func EncodeResource(wireType, id string, attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}

	b, err := json.Marshal(requestDocument{Data: requestResource{Type: wireType, ID: id, Attributes: attrs}})
	if err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", wireType, err)
	}

	return b, nil
}
