package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"insight-flow/backend/internal/models"
)

var (
	errNoTransaction = errors.New("request has no database transaction")

	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators adds the role and task_status tags to gin's validator
// and reports field names by their json tag.
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, err := models.ParseMemberRole(fl.Field().String())
			return err == nil
		}); err != nil {
			validatorsErr = err
			return
		}
		validatorsErr = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
			_, err := models.ParseTaskStatus(fl.Field().String())
			return err == nil
		})
	})
	return validatorsErr
}

func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// validationMessage turns a binding error into a readable sentence.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		return strings.Join(msgs, "; ")
	}
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON body"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}
	return err.Error()
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "role":
		return field + " must be one of: owner, admin, member"
	case "task_status":
		return field + " must be one of: todo, in_progress, done"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
