package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	stockCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,31}$`)
	datePattern      = regexp.MustCompile(`^[0-9]{8}$`)
)

// IsStockCode reports whether s is safe to use as a file stem under a date
// directory. Path separators and leading dots are rejected.
func IsStockCode(s string) bool {
	return stockCodePattern.MatchString(s) && !strings.Contains(s, "..")
}

// IsDate reports whether s is an 8-digit date directory name.
func IsDate(s string) bool {
	return datePattern.MatchString(s)
}

// NewParamValidator returns a validator with the "stockcode" and "tradedate"
// tags registered. Field names in errors follow the json tag.
func NewParamValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("stockcode", func(fl validator.FieldLevel) bool {
		return IsStockCode(fl.Field().String())
	})
	v.RegisterValidation("tradedate", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}
