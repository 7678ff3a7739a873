package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"rd-topup-api/internal/utils"
)

// RegisterValidators 注册自定义 binding 规则
func RegisterValidators(region string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("wa_number", func(fl validator.FieldLevel) bool {
		_, err := utils.NormalizeWhatsApp(fl.Field().String(), region)
		return err == nil
	})
}
