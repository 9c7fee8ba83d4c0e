// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Irish Eircode: a routing key (letter + two digits, or D6W) and a
// four character unique identifier.
var eircodePattern = regexp.MustCompile(`^(?:[AC-FHKNPRTV-Y]\d{2}|D6W)[0-9AC-FHKNPRTV-Y]{4}$`)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator with the platform tags (eircode) registered.
// Domain-specific rules are added with RegisterValidation.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("eircode", func(fl validator.FieldLevel) bool {
		return IsEircode(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// NormalizeEircode uppercases and strips whitespace.
func NormalizeEircode(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// IsEircode reports whether raw is a well-formed Eircode, with or without the space.
func IsEircode(raw string) bool {
	return eircodePattern.MatchString(NormalizeEircode(raw))
}

// FieldErrors flattens validation errors into field -> failed tag.
// Returns nil for errors that did not come from the validator.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
