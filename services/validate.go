package services

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"exambuilder/models"
)

// requestValidator checks request structs by their validate tags. Field names
// in errors are the JSON names.
var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	mustRegister(v, "question_type", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseQuestionType(fl.Field().String())
		return ok
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// validateRequest runs the validate tags of req and reports the first failing
// field as a ValidationError.
func validateRequest(req interface{}) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gt", "finite":
		return "must be a positive number"
	case "min", "gte":
		return "must not be negative"
	case "question_type":
		return "must be MULTIPLE_CHOICE or FORMULA"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func (r *CreateExamRequest) validate() error { return validateRequest(r) }

func (r *UpdateExamRequest) validate() error { return validateRequest(r) }

// validate also normalises Type to its canonical name.
func (r *CreateQuestionRequest) validate() error {
	if err := validateRequest(r); err != nil {
		return err
	}
	r.Type, _ = models.ParseQuestionType(string(r.Type))
	return nil
}

func (r *UpdateQuestionRequest) validate() error { return validateRequest(r) }

func (r *CreateOptionRequest) validate() error { return validateRequest(r) }

func (r *UpdateOptionRequest) validate() error { return validateRequest(r) }

func (r *CreateFormulaAnswerRequest) validate() error { return validateRequest(r) }

func (r *UpdateFormulaAnswerRequest) validate() error { return validateRequest(r) }
