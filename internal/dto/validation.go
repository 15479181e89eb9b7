package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterValidators adds the custom binding rules to gin's validator. It must
// run before the router serves requests.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("notnil", notNilUUID); err != nil {
		return err
	}
	return v.RegisterValidation("nonnegative", nonNegativeDecimal)
}

// notNilUUID rejects uuid.Nil, which is what a missing id decodes to.
func notNilUUID(fl validator.FieldLevel) bool {
	id, ok := fl.Field().Interface().(uuid.UUID)
	return ok && id != uuid.Nil
}

// nonNegativeDecimal rejects prices below zero. The validator dereferences
// pointer fields before calling it.
func nonNegativeDecimal(fl validator.FieldLevel) bool {
	switch d := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return !d.IsNegative()
	case *decimal.Decimal:
		return d != nil && !d.IsNegative()
	default:
		return false
	}
}
