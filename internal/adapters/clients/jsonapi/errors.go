package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// Shape identifies how a failure body's errors member was laid out.
type Shape int

// Recognised errors member shapes.
const (
	ShapeNone Shape = iota
	ShapeLaravel
	ShapeJSONAPI
	ShapeUnknown
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeLaravel:
		return "laravel"
	case ShapeJSONAPI:
		return "jsonapi"
	default:
		return "unknown"
	}
}

// ValidationTitle is the title given to flattened field messages.
const ValidationTitle = "Validation Error"

// SubErrors detects the layout of an errors member and returns its entries.
//
// An object with at least one non-numeric key is the Laravel field map
// ({"field": ["message", ...]}) and is flattened to one entry per message
// in document order. An array, or an object keyed only by numbers, holds
// JSON:API error objects and is used as-is. Anything else yields
// ShapeUnknown and no entries.
func SubErrors(raw json.RawMessage) ([]domain.SubError, Shape) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ShapeNone
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, ShapeUnknown
		}

		return jsonAPIErrors(items), ShapeJSONAPI
	case '{':
		keys, values, err := orderedObject(trimmed)
		if err != nil {
			return nil, ShapeUnknown
		}

		if allNumeric(keys) {
			return jsonAPIErrors(values), ShapeJSONAPI
		}

		return laravelErrors(keys, values), ShapeLaravel
	default:
		return nil, ShapeUnknown
	}
}

func allNumeric(keys []string) bool {
	if len(keys) == 0 {
		return false
	}

	for _, k := range keys {
		if _, err := strconv.Atoi(k); err != nil {
			return false
		}
	}

	return true
}

func laravelErrors(fields []string, values []json.RawMessage) []domain.SubError {
	out := make([]domain.SubError, 0, len(fields))

	for i, field := range fields {
		for _, msg := range messages(values[i]) {
			out = append(out, domain.SubError{
				Title:  ValidationTitle,
				Detail: msg,
				Source: &domain.Source{Parameter: field},
			})
		}
	}

	return out
}

// messages reads a Laravel field value: a list of strings or one string.
func messages(raw json.RawMessage) []string {
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, stringify(v))
		}

		return out
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil
	}

	return []string{stringify(v)}
}

func jsonAPIErrors(items []json.RawMessage) []domain.SubError {
	out := make([]domain.SubError, 0, len(items))

	for _, item := range items {
		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}

		switch e := v.(type) {
		case map[string]any:
			out = append(out, subErrorFromMap(e))
		case nil:
		default:
			out = append(out, domain.SubError{Detail: stringify(e)})
		}
	}

	return out
}

func subErrorFromMap(m map[string]any) domain.SubError {
	se := domain.SubError{
		Title:  stringify(m["title"]),
		Detail: stringify(m["detail"]),
		Status: stringify(m["status"]),
		Code:   stringify(m["code"]),
	}

	if src, ok := m["source"].(map[string]any); ok {
		se.Source = &domain.Source{
			Parameter: stringify(src["parameter"]),
			Pointer:   stringify(src["pointer"]),
		}
	}

	return se
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}

		return string(b)
	}
}

// orderedObject walks a JSON object and returns its keys and raw values in
// document order.
func orderedObject(raw []byte) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var (
		keys   []string
		values []json.RawMessage
	)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}

		keys = append(keys, key)
		values = append(values, v)
	}

	return keys, values, nil
}
