// Package inputval validates form and command-line input with
// go-playground/validator, binding the custom registrant tags to the
// shared rules package.
package inputval

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom validation tags
const (
	notBlankTag     = "notblank"
	campAgeTag      = "camp_age"
	campGenderTag   = "camp_gender"
	campLocationTag = "camp_location"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Messages read better with the human label than the Go field name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(campAgeTag, campAge)
	_ = validate.RegisterValidation(campGenderTag, campGender)
	_ = validate.RegisterValidation(campLocationTag, campLocation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, campAgeTag, campGenderTag, campLocationTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " is required"
	case campAgeTag:
		raw, _ := fe.Value().(string)
		switch _, p := rules.ParseAge(raw); p {
		case rules.AgeMissing:
			return "Age is required"
		case rules.AgeBelowMinimum:
			return "Participant must be at least " + strconv.Itoa(rules.MinAge) + " years old"
		default:
			return "Age must be a whole number"
		}
	case campGenderTag:
		return "Please select " + strings.Join(rules.Genders, " or ")
	case campLocationTag:
		return "Please select a church location from the list"
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && rules.IsNonEmptyName(s)
}

func campAge(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, p := rules.ParseAge(s)
	return p == rules.AgeOK
}

func campGender(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && rules.IsValidGender(s)
}

func campLocation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && rules.IsValidLocation(s)
}

// Errors maps form field names to a human-readable message.
type Errors map[string]string

// Struct validates v and returns one message per failing field, keyed by
// the field's `form` tag (or its Go name when the tag is absent).
// It returns nil when v is valid.
func Struct(v any) Errors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"_": err.Error()}
	}

	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		key := fe.StructField()
		if sf, found := t.FieldByName(fe.StructField()); found {
			if form := sf.Tag.Get("form"); form != "" {
				key = form
			}
		}
		if _, exists := out[key]; !exists {
			out[key] = fe.Translate(translator)
		}
	}
	return out
}

// IsValidEmail reports whether s is a syntactically valid email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	return validate.Var(s, "required,email") == nil
}
