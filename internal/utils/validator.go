// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var serviceTypes = map[string]bool{
	"patent":          true,
	"copyright":       true,
	"trademark":       true,
	"ip-consultation": true,
	"litigation":      true,
	"other":           true,
}

func init() {
	validate = validator.New()
	validate.RegisterValidation("service_type", validateServiceType)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateServiceType(fl validator.FieldLevel) bool {
	return serviceTypes[strings.ToLower(fl.Field().String())]
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "service_type":
		return "Unknown service type"
	default:
		return e.Field() + " is invalid"
	}
}
