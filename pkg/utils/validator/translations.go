package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var customTranslations = map[string]map[string]string{
	LangEN: {
		TagNonBlank: "{0} must not be blank",
	},
	LangZH: {
		TagNonBlank: "{0}不能为空白",
	},
}

func (v *Validator) registerCustomTranslations() {
	for lang, messages := range customTranslations {
		trans, ok := v.trans[lang]
		if !ok {
			continue
		}
		for tag, message := range messages {
			registerTranslation(v.validate, trans, tag, message)
		}
	}
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}
