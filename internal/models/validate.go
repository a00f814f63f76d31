package models

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"inventory-api/internal/apperrors"
)

var validate = newValidator()

// Up to 8 integer digits and 2 decimal places, matching DECIMAL(10,2).
var priceRegexp = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return priceRegexp.MatchString(fl.Field().String())
	})

	return v
}

// Validate checks a request struct against its tags and returns a
// ValidationError carrying a field -> message map, or nil.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Internal("validation failed")
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}

	return apperrors.Validation("Invalid request payload", fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "price":
		return "Must be a non-negative decimal with at most 2 decimal places"
	default:
		return "Invalid value"
	}
}
