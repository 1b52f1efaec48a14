// Package validation installs custom binding tags on gin's validator
// engine. Register must run before the first request is bound.
package validation

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Snowflake IDs are decimal strings up to 20 digits. Refs from the chat
// platform are never empty and never contain non-digits.
var snowflakePattern = regexp.MustCompile(`^[0-9]{1,20}$`)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("snowflake", func(fl validator.FieldLevel) bool {
			return snowflakePattern.MatchString(fl.Field().String())
		})
	})
}
