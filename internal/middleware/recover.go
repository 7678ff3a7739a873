package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/utils"
)

func Recover(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("trace_id", c.GetString(TraceIDKey)).Errorf("[PANIC] %v\n%s", r, debug.Stack())
				utils.Fail(c, constant.NewError(constant.CodeSystemError))
			}
		}()
		c.Next()
	}
}
