// Package validate wraps the struct validator shared by services and the
// HTTP layer.
package validate

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates tagged fields on s.
func Struct(s any) error {
	return v.Struct(s)
}

// Messages flattens a validator error into one human-readable line per
// failing field.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s can't be blank", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long (maximum is %s characters)", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s is too short (minimum is %s characters)", fe.Field(), fe.Param()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid email address", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "uuid":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid id", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return msgs
}
