package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jms-erp/jms/internal/shared"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAndValidate decodes the body into target and runs struct tag validation.
// Failures come back as validation errors prefixed with prefix.
func DecodeAndValidate(r *http.Request, target any, prefix string) error {
	if err := DecodeJSON(r, target); err != nil {
		return shared.Validation(strings.TrimSpace(prefix + " Malformed request body."))
	}
	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return shared.Validation(strings.TrimSpace(fmt.Sprintf("%s %s", prefix, describe(verrs[0]))))
		}
		return shared.Validation(strings.TrimSpace(prefix + " " + err.Error()))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required.", field)
	case "min", "gte", "gt":
		return fmt.Sprintf("Field %s must be at least %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("Field %s must be one of: %s.", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Field %s must be at most %s.", field, fe.Param())
	default:
		return fmt.Sprintf("Field %s is invalid.", field)
	}
}
