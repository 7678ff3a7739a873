package middleware

import (
	"crypto/hmac"
	"strings"

	"github.com/gin-gonic/gin"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/utils"
)

const StaffIDKey = "staff_id"

// AdminAuth 后台接口：Authorization: Bearer <token>（或 ?token=），X-Staff-Id 记录操作人
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			utils.Fail(c, constant.NewErrorf(constant.CodeAccessDenied, "admin token not configured"))
			return
		}
		got := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if got == "" {
			// 浏览器 websocket 无法设置请求头
			got = c.Query("token")
		}
		if got == "" || !hmac.Equal([]byte(got), []byte(token)) {
			utils.Fail(c, constant.NewError(constant.CodeUnauthorized))
			return
		}
		staff := strings.TrimSpace(c.GetHeader("X-Staff-Id"))
		if staff == "" {
			staff = "admin"
		}
		c.Set(StaffIDKey, staff)
		c.Next()
	}
}
