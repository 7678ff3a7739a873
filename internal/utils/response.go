package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rd-topup-api/internal/constant"
)

// 统一响应格式（印尼语 + 英文提示）
type Response struct {
	Code    int         `json:"code"`
	Msg     string      `json:"msg"`              // Bahasa Indonesia
	MsgEN   string      `json:"msg_en,omitempty"` // English
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// 成功响应
func Success(data interface{}) Response {
	return Response{
		Code:  constant.CodeSuccess,
		Msg:   "Berhasil",
		MsgEN: "Success",
		Data:  data,
	}
}

// 错误响应（自动从 constant 中获取描述）
func Error(code int) Response {
	if info, exists := constant.GetErrorInfo(code); exists {
		return Response{
			Code:  code,
			Msg:   info.ID,
			MsgEN: info.EN,
		}
	}
	return Response{
		Code:  code,
		Msg:   "Kesalahan tidak dikenal",
		MsgEN: "Unknown error",
	}
}

// FromError 把 error 转成响应体与 HTTP 状态；自定义消息放在 msg_en
func FromError(err error, traceID string) (int, Response) {
	code := constant.CodeOf(err)
	resp := Error(code)
	resp.TraceID = traceID

	var ce constant.Error
	if errors.As(err, &ce) {
		resp.MsgEN = ce.Message()
		if cd, ok := ce.(interface{ Data() interface{} }); ok {
			resp.Data = cd.Data()
		}
	}
	return constant.HTTPStatus(code), resp
}

// OK 写成功响应
func OK(c *gin.Context, data interface{}) {
	resp := Success(data)
	resp.TraceID = c.GetString("trace_id")
	c.JSON(http.StatusOK, resp)
}

// Fail 写错误响应
func Fail(c *gin.Context, err error) {
	status, resp := FromError(err, c.GetString("trace_id"))
	c.AbortWithStatusJSON(status, resp)
}
