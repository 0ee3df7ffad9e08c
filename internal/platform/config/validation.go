package config

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their koanf keys so messages name the
// setting a user would actually edit.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if key := fld.Tag.Get("koanf"); key != "" && key != "-" {
			return key
		}
		return snakeCase(fld.Name)
	})
	return v
}

// FieldError is one rejected setting.
type FieldError struct {
	Key     string
	Message string
}

// ValidationError lists every rejected setting in a configuration.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, f := range e.Fields {
		b.WriteString("\n  ")
		b.WriteString(f.Key)
		b.WriteByte(' ')
		b.WriteString(f.Message)
	}
	return b.String()
}

// Has reports whether key was rejected.
func (e *ValidationError) Has(key string) bool {
	for _, f := range e.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Validate returns a *ValidationError describing every invalid setting.
// Neither the SDK nor the stub server should start with invalid config.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Key:     formatFieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		// Param is "<Field> <value>".
		field, value, _ := strings.Cut(param, " ")
		return "is required when " + snakeCase(field) + " is " + value
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of: " + param
	case "url":
		return "must be a valid URL"
	case "gtefield":
		return "must not be less than " + snakeCase(param)
	default:
		return "failed validation: " + fe.Tag()
	}
}

// formatFieldPath drops the root type from a validator namespace:
// "Config.stub.server.port" becomes "stub.server.port".
func formatFieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return snakeCase(namespace)
}

// snakeCase turns a Go field name into its koanf spelling.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (unicode.IsLower(runes[i-1]) || nextLower) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
