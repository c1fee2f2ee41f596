package meeting

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ushauri/core"
)

var statusTag = "meetingstatus"

func init() {
	_ = core.Validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(statusTag, "invalid meeting status")
}
