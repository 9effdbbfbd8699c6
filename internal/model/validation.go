package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding rules referenced by the
// request types: "ymd" for calendar dates and "hhmm" for wall-clock times.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(TimeLayout, fl.Field().String())
		return err == nil
	})
}
