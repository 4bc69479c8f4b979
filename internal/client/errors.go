package client

import (
	"encoding/json"
	"net/http"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

// ResponseError 服务端返回的错误
// Error() 原样返回服务端 message,Unwrap 得到对应的工作流错误类型
type ResponseError struct {
	StatusCode int
	Reason     string
	Message    string
	Detail     string
	Err        error
}

func (e *ResponseError) Error() string {
	return e.Message
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// decodeError 按 reason（缺失时按状态码）还原工作流错误
func decodeError(status int, body []byte, reportID string) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		env.Message = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		return &workflow.NetworkError{StatusCode: status, Message: env.Message}
	}

	reason := env.Reason
	if reason == "" {
		reason = reasonForStatus(status)
	}
	return &ResponseError{
		StatusCode: status,
		Reason:     reason,
		Message:    env.Message,
		Detail:     env.Detail,
		Err:        typedError(reason, env.Message, env.Detail, reportID),
	}
}

func reasonForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return workflow.ReasonValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return workflow.ReasonForbidden
	case http.StatusNotFound:
		return workflow.ReasonNotFound
	case http.StatusUnprocessableEntity:
		return workflow.ReasonRetryCeiling
	}
	return ""
}

func typedError(reason, message, detail, reportID string) error {
	switch reason {
	case workflow.ReasonValidation:
		return &workflow.ValidationError{Message: message}
	case workflow.ReasonForbidden:
		return &workflow.ForbiddenError{Action: "request", Reason: message}
	case workflow.ReasonAlreadyResolved:
		return &workflow.AlreadyResolvedError{}
	case workflow.ReasonVersionConflict:
		return &workflow.ConflictError{ReportID: reportID}
	case workflow.ReasonRetryCeiling:
		// 上限以服务端配置为准
		if e := workflow.ParseRetryCeiling(message); e.Limit > 0 {
			return e
		}
		return workflow.ParseRetryCeiling(detail)
	case workflow.ReasonIllegalTransition:
		return &workflow.IllegalTransitionError{Action: "request"}
	case workflow.ReasonNotFound:
		return &workflow.NotFoundError{Resource: "resource", ID: reportID}
	}
	return nil
}
