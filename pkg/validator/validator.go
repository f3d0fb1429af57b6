package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()

	// resource_type restricts subscription commands to known Graph resources
	_ = v.RegisterValidation("resource_type", func(fl validator.FieldLevel) bool {
		switch entities.ResourceType(fl.Field().String()) {
		case entities.ResourceTypeCalendarEvents, entities.ResourceTypeCallRecords:
			return true
		}
		return false
	})

	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
