package constant

import (
	"errors"
	"fmt"
	"net/http"
)

// Error coded error; errors.Is matches any two Errors carrying the same code.
type Error interface {
	error
	Code() int
	Message() string
	WithData(data interface{}) Error
}

// CustomError default Error implementation
type CustomError struct {
	code    int
	message string
	data    interface{}
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("code: %d, message: %s", e.code, e.message)
}

func (e *CustomError) Code() int {
	return e.code
}

func (e *CustomError) Message() string {
	return e.message
}

func (e *CustomError) Data() interface{} {
	return e.data
}

func (e *CustomError) WithData(data interface{}) Error {
	return &CustomError{code: e.code, message: e.message, data: data}
}

func (e *CustomError) Is(target error) bool {
	var ce Error
	if errors.As(target, &ce) {
		return ce.Code() == e.code
	}
	return false
}

// NewError builds an Error carrying the registered English message.
func NewError(code int) Error {
	if info, exists := ErrorMessages[code]; exists {
		return &CustomError{code: code, message: info.EN}
	}
	return &CustomError{code: code, message: "unknown error"}
}

// NewErrorf builds an Error with a custom message.
func NewErrorf(code int, format string, args ...interface{}) Error {
	return &CustomError{code: code, message: fmt.Sprintf(format, args...)}
}

// GetErrorInfo looks up the message pair of a code
func GetErrorInfo(code int) (ErrorInfo, bool) {
	info, exists := ErrorMessages[code]
	return info, exists
}

// Taxonomy sentinels; compare with errors.Is.
var (
	ErrValidation    = NewError(CodeInvalidParams)
	ErrAuthenticity  = NewError(CodeSignatureError)
	ErrNotFound      = NewError(CodeOrderNotFound)
	ErrNotConnected  = NewError(CodeMessagingNotConnected)
	ErrRemote        = NewError(CodeUpstreamError)
	ErrRemoteTimeout = NewError(CodeUpstreamTimeout)
	ErrStoreConflict = NewError(CodeNotifyAlreadyClaimed)
	ErrStore         = NewError(CodeDatabaseError)
)

// Validation shorthand for a 4xx input error with a specific message.
func Validation(format string, args ...interface{}) Error {
	return NewErrorf(CodeInvalidParams, format, args...)
}

// CodeOf extracts the code of the first Error in the chain; CodeSystemError otherwise.
func CodeOf(err error) int {
	var ce Error
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return CodeSystemError
}

// HTTPStatus maps a code onto the transport status used by the handlers.
func HTTPStatus(code int) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParams, CodeMissingParams, CodeParamsRangeError, CodeOrderAmountInvalid,
		CodeOrderStatusInvalid, CodeMessagingDisabled:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeSignatureError:
		return http.StatusUnauthorized
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeOrderNotFound, CodeProductNotFound:
		return http.StatusNotFound
	case CodeMessagingNotConnected, CodeNotifyAlreadyClaimed:
		return http.StatusConflict
	case CodeUpstreamError, CodeUpstreamNetworkError:
		return http.StatusBadGateway
	case CodeUpstreamTimeout, CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
