package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest checks struct tags and returns a Validation error naming
// the first offending field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return apperror.Wrap(apperror.KindValidation, err, "invalid request")
	}

	fe := validationErrors[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperror.Newf(apperror.KindValidation, "%s is required", field)
	case "min":
		return apperror.Newf(apperror.KindValidation, "%s must be at least %s characters", field, fe.Param())
	case "max":
		return apperror.Newf(apperror.KindValidation, "%s must be at most %s characters", field, fe.Param())
	default:
		return apperror.New(apperror.KindValidation, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
	}
}
