package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks inputs and patches against their struct tags.
// A Validator is safe for concurrent use once constructed.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator. Field names in messages use the json tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s. It returns nil for non-struct values so patch types
// without tags pass through.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return &Error{Code: ErrCodeInvalidInput, Op: "validate", Err: errors.New(strings.Join(parts, ", "))}
	}
	return err
}
