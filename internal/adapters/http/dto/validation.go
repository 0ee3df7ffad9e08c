package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// tagParts is the number of parts when splitting a struct tag by comma.
const tagParts = 2

// Validation errors.
var (
	// ErrValidation indicates a validation failure occurred.
	ErrValidation = errors.New("validation failed")

	// ErrBinding indicates body or query binding failed.
	ErrBinding = errors.New("binding failed")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the singleton validator instance. Field names in
// errors come from the json tag, falling back to the form tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", tagParts)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}

			return fld.Name
		})
	})

	return validate
}

// Validate validates a struct using the validator instance.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate binds the body (JSON or form, by content type) and
// validates it.
func BindAndValidate(c *gin.Context, v any) error {
	err := c.ShouldBind(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// BindQueryAndValidate binds query parameters and validates.
func BindQueryAndValidate(c *gin.Context, v any) error {
	err := c.ShouldBindQuery(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors renders validator failures of a struct as Laravel
// field messages.
func ValidationErrors(err error) map[string][]string {
	out := make(map[string][]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe.Field(), fe))
		}
	}

	return out
}

// ValidateAttributes checks a payload against per-attribute validator tags.
// With partial set, attributes absent from attrs are not checked. The
// result maps each failing attribute to its messages and is empty when the
// payload is valid.
func ValidateAttributes(rules map[string]string, attrs map[string]any, partial bool) map[string][]string {
	data := make(map[string]any, len(rules))
	checks := make(map[string]any, len(rules))

	for field, tag := range rules {
		value, present := attrs[field]
		if partial && !present {
			continue
		}

		data[field] = value
		checks[field] = tag
	}

	out := make(map[string][]string)

	for field, err := range validateMap(data, checks) {
		var verrs validator.ValidationErrors
		if errors.As(asError(err), &verrs) && len(verrs) > 0 {
			out[field] = []string{fieldMessage(field, verrs[0])}
			continue
		}

		out[field] = []string{fmt.Sprintf("The %s is invalid.", displayName(field))}
	}

	return out
}

// validateMap runs ValidateMap one field at a time so a rule that panics
// on the value's type fails only that field.
func validateMap(data, rules map[string]any) map[string]any {
	out := make(map[string]any)

	for field, rule := range rules {
		func() {
			defer func() {
				if r := recover(); r != nil {
					out[field] = fmt.Errorf("unsupported value for %q", field)
				}
			}()

			for k, v := range Validator().ValidateMap(map[string]any{field: data[field]}, map[string]any{field: rule}) {
				out[k] = v
			}
		}()
	}

	return out
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}

	return nil
}

func displayName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// fieldMessage phrases a failed rule the way Laravel does.
func fieldMessage(field string, fe validator.FieldError) string {
	name := displayName(field)
	param := fe.Param()

	suffix := ""
	if fe.Kind() == reflect.String {
		suffix = " characters"
	}

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("The %s field is required.", name)
	case "max", "lte":
		return fmt.Sprintf("The %s may not be greater than %s%s.", name, param, suffix)
	case "min", "gte":
		return fmt.Sprintf("The %s must be at least %s%s.", name, param, suffix)
	case "oneof", "eq":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "url", "email", "uuid":
		return fmt.Sprintf("The %s format is invalid.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}
