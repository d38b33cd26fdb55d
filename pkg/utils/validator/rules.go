package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// TagNonBlank rejects strings made only of whitespace.
const TagNonBlank = "nonblank"

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagNonBlank, validateNonBlank)
}

func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
