package validators

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterBindings adds the custom tags used by request DTOs to gin's
// validator engine
func RegisterBindings() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	// Report fields by their JSON names
	engine.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}

		return name
	})

	err := engine.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return PasswordValidator(fl.Field().String()) == nil
	})
	if err != nil {
		return fmt.Errorf("failed to register strongpassword, %w", err)
	}

	err = engine.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return UsernameValidator(fl.Field().String()) == nil
	})
	if err != nil {
		return fmt.Errorf("failed to register username, %w", err)
	}

	return nil
}

// FieldMessages turns validator errors into a field -> message map
func FieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))

	for _, fe := range errs {
		out[fe.Field()] = fieldMessage(fe)
	}

	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("cannot exceed %v characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %v", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %v", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %v characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return fmt.Sprintf("must be one of %v", fe.Param())
	case "strongpassword":
		return ErrPasswordWeak.Error() + ", minimum 10 characters"
	case "username":
		return ErrUsernameInvalid.Error() + ", 3 to 32 characters"
	default:
		return "is invalid"
	}
}
