// Package validator wires go-playground/validator as echo's request validator.
package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type echoValidator struct {
	validate *validator.Validate
}

// New creates the echo.Validator implementation.
func New() echo.Validator {
	return &echoValidator{validate: validator.New()}
}

// Validate implements echo.Validator. Handlers map violations to a 400.
func (v *echoValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
