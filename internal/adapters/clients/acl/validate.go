package acl

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/cardsdk/internal/adapters/clients/jsonapi"
	"github.com/jsamuelsen/cardsdk/internal/domain"
	"github.com/jsamuelsen/cardsdk/internal/ports"
)

// validationMessage is the summary carried by client-side validation errors.
const validationMessage = "The given data was invalid."

var validate = validator.New()

// ValidateAttributes checks a create or update payload against the rules
// for kind before it is sent. With partial set, rules for attributes absent
// from attrs are skipped, which is what a PATCH needs. Attributes without a
// rule pass through unchecked, as do kinds without a rule table.
//
// Failures come back as a *domain.ValidationError shaped like a 422 from
// the API, one sub-error per failed field.
func ValidateAttributes(lookup ports.SchemaLookup, kind string, attrs map[string]any, partial bool) error {
	if lookup == nil {
		return nil
	}

	rules, ok := lookup.Rules(kind)
	if !ok {
		return nil
	}

	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var subs []domain.SubError

	for _, field := range fields {
		tag := rules[field]
		value, present := attrs[field]

		if !present || value == nil {
			if partial && !present {
				continue
			}

			if hasRule(tag, "required") {
				subs = append(subs, fieldError(field, requiredMessage(field)))
			}

			continue
		}

		if err := checkVar(value, tag); err != nil {
			subs = append(subs, fieldError(field, ruleMessage(field, value, err)))
		}
	}

	if len(subs) == 0 {
		return nil
	}

	return domain.NewValidationError(domain.Fields{
		Message:   validationMessage,
		APIErrors: subs,
		Context:   map[string]any{"kind": kind, "client_side": true},
	})
}

// checkVar runs one rule set. validator panics on rules that do not apply
// to the value's type, e.g. max on a bool; that counts as a failure.
func checkVar(value any, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unsupported value %T for %q", value, tag)
		}
	}()

	return validate.Var(value, tag)
}

func hasRule(tag, rule string) bool {
	for _, part := range strings.Split(tag, ",") {
		if part == rule {
			return true
		}
	}

	return false
}

func fieldError(field, msg string) domain.SubError {
	return domain.SubError{
		Title:  jsonapi.ValidationTitle,
		Detail: msg,
		Source: &domain.Source{Parameter: field},
	}
}

func displayName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", displayName(field))
}

// ruleMessage phrases the first failed rule the way the API does.
func ruleMessage(field string, value any, err error) string {
	name := displayName(field)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("The %s is invalid.", name)
	}

	fe := verrs[0]
	isString := reflect.ValueOf(value).Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return requiredMessage(field)
	case "max":
		if isString {
			return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", name, fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "url":
		return fmt.Sprintf("The %s format is invalid.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}
