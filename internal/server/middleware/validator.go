package middleware

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	commonTags := []string{
		"json",
		"param",
		"query",
		"header",
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range commonTags {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})

	// torrentid: a tracker id, info hash or link without whitespace
	_ = validate.RegisterValidation("torrentid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
	})

	return &Validator{
		validate: validate,
	}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
