package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ruleChecker is implemented by models with cross-field rules.
type ruleChecker interface {
	CheckRules() error
}

type defaulter interface {
	ApplyDefaults()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRecord runs struct tags, then model rules. All failures are
// joined into one message.
func validateRecord(v *validator.Validate, rec any) error {
	var msgs []string
	if err := v.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
	}
	if rc, ok := rec.(ruleChecker); ok {
		if err := rc.CheckRules(); err != nil {
			msgs = append(msgs, strings.Split(err.Error(), "\n")...)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describeFieldError(fe))
	}
	return strings.Join(parts, "; ")
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", fe.Field())
	case "email":
		return fmt.Sprintf("%s deve ser um email válido", fe.Field())
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s caracteres", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um de: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s inválido (%s)", fe.Field(), fe.Tag())
	}
}
