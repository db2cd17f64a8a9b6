package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/bmwamba/darasa/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)
}

// roleValidation only allows values from AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AllRoles {
		if role == val {
			return true
		}
	}
	return false
}
