// Package validate wraps go-playground/validator with JSON field names and
// messages that read well in API responses and controller error states.
package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"scribes/internal/apperr"
	"scribes/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports JSON field names and knows the
// "password" rule.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	if err := crypto.RegisterPasswordValidator(v); err != nil {
		panic(err)
	}
	return v
}

// Struct validates req and converts a failure into an apperr validation error.
func Struct(ctx context.Context, v *validator.Validate, req any) error {
	err := v.StructCtx(ctx, req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Invalid("invalid input: %v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Invalid("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		}
		if fe.Param() == "1" {
			return field + " must not be empty"
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email"
	case "password":
		return crypto.ErrPasswordStrength.Error()
	case "excluded_with":
		return field + " cannot be combined with the field it clears"
	}
	return field + " is invalid"
}
