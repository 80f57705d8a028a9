package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents one failed validation rule.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       any
}

// Key returns "Field.tag", the lookup key of Messages.
func (e ErrorResponse) Key() string {
	return e.FailedField + "." + e.Tag
}

var validate = validator.New() //nolint:gochecknoglobals

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// Validate performs validation on the provided data and returns the failed rules.
func Validate(data any) []ErrorResponse {
	return ValidationErrors(validate.Struct(data))
}

// ValidationErrors converts a validator error into ErrorResponses.
func ValidationErrors(err error) []ErrorResponse {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make([]ErrorResponse, 0, len(errs))
	for _, fe := range errs {
		out = append(out, ErrorResponse{
			FailedField: fe.Field(),
			Tag:         fe.Tag(),
			Value:       fe.Value(),
		})
	}

	return out
}

// Messages turns failed rules into readable text using messages keyed by "Field.tag".
// Rules without an entry get a generic message.
func Messages(errs []ErrorResponse, messages map[string]string) []string {
	out := make([]string, 0, len(errs))

	for _, e := range errs {
		if msg, ok := messages[e.Key()]; ok {
			out = append(out, msg)
			continue
		}

		out = append(out, "Field '"+e.FailedField+"' failed validation tag '"+e.Tag+"'")
	}

	return out
}
