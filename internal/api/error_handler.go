package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
	Reason  string
}

func (e *APIError) Error() string {
	return e.Message
}

// reasonStatus 工作流错误原因对应的 HTTP 状态码
var reasonStatus = map[string]int{
	workflow.ReasonValidation:        http.StatusBadRequest,
	workflow.ReasonForbidden:         http.StatusForbidden,
	workflow.ReasonAlreadyResolved:   http.StatusConflict,
	workflow.ReasonVersionConflict:   http.StatusConflict,
	workflow.ReasonRetryCeiling:      http.StatusUnprocessableEntity,
	workflow.ReasonIllegalTransition: http.StatusConflict,
	workflow.ReasonNotFound:          http.StatusNotFound,
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			RespondError(c, c.Errors.Last().Err)
		}
	}
}

// RespondError 把服务层错误转换为统一的错误响应
func RespondError(c *gin.Context, err error) {
	apiErr := ToAPIError(err)
	ErrorWithReason(c, apiErr.Code, apiErr.Message, apiErr.Detail, apiErr.Reason)
}

// ToAPIError 按错误类型确定状态码和 reason
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if reason := workflow.Reason(err); reason != "" {
		return &APIError{Code: reasonStatus[reason], Message: err.Error(), Reason: reason}
	}
	var netErr *workflow.NetworkError
	if errors.As(err, &netErr) {
		return &APIError{Code: http.StatusBadGateway, Message: netErr.Error()}
	}
	return &APIError{Code: http.StatusInternalServerError, Message: "internal server error", Detail: err.Error()}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}
