package model

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidRecord is returned when a record fails input validation.
var ErrInvalidRecord = errors.New("invalid record")

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	monthTag    = "month"
	finiteTag   = "finite"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(monthTag, monthValidation)
	_ = validate.RegisterValidation(finiteTag, finiteValidation)
	registerCustomTranslations(notBlankTag, monthTag, finiteTag)
}

// registerCustomTranslations registers messages for the custom tags. The register
// func is a noop since the default translations are already in place.
func registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
	}
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case monthTag:
		return fe.Field() + " must be a month name"
	case finiteTag:
		return fe.Field() + " must be a finite number"
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func finiteValidation(fl validator.FieldLevel) bool {
	if f, ok := fl.Field().Interface().(float64); ok {
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	}
	return false
}

func monthValidation(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	for _, m := range Months {
		if m == str {
			return true
		}
	}
	return false
}

// ValidateRecord checks a record at the input boundary. The returned error wraps
// ErrInvalidRecord and lists every failing field.
func ValidateRecord(r WeeklyRecord) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
}
