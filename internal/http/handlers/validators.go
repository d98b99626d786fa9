package handlers

import (
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the task enum rules on gin's validator and
// makes the JSON decoder reject unknown fields. Safe to call more than once.
func RegisterValidators() error {
	binding.EnableDecoderDisallowUnknownFields = true

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return task.Status(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}

	return v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
		return task.Priority(fl.Field().String()).IsValid()
	})
}
