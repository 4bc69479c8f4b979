package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError 校验错误,在任何网络调用之前产生
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ForbiddenError 调用者无权执行该动作
type ForbiddenError struct {
	Action string
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s forbidden: %s", e.Action, e.Reason)
}

// AlreadyResolvedError 审批条目已处理,需要重新获取文档
type AlreadyResolvedError struct {
	EmployeeID string
	Status     ApprovalStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("approval entry of %s is already %s", e.EmployeeID, e.Status)
}

// ConflictError 版本令牌不匹配（其他会话已修改文档）
type ConflictError struct {
	ReportID string
	Expected int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("report %s was modified concurrently (expected version %d)", e.ReportID, e.Expected)
}

// IllegalTransitionError 非法状态转换
type IllegalTransitionError struct {
	From   Status
	To     Status
	Action string
}

func (e *IllegalTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("cannot %s a report in status %s", e.Action, e.From)
	}
	return fmt.Sprintf("illegal transition %s -> %s (%s)", e.From, e.To, e.Action)
}

// RetryCeilingExceededError 重新提交次数已达上限
type RetryCeilingExceededError struct {
	Count int
	Limit int
}

const retryCeilingFormat = "report was already resubmitted %d times; at most %d resubmissions are allowed"

func (e *RetryCeilingExceededError) Error() string {
	return fmt.Sprintf(retryCeilingFormat, e.Count, e.Limit)
}

// ParseRetryCeiling 从错误消息中还原次数和上限,消息格式不符时两者为 0
func ParseRetryCeiling(message string) *RetryCeilingExceededError {
	e := &RetryCeilingExceededError{}
	i := strings.Index(message, "report was already resubmitted")
	if i < 0 {
		return e
	}
	if _, err := fmt.Sscanf(message[i:], retryCeilingFormat, &e.Count, &e.Limit); err != nil {
		return &RetryCeilingExceededError{}
	}
	return e
}

// NotFoundError 文档不存在
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NetworkError 传输失败或服务端 5xx
type NetworkError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed, please try again"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsConflict 判断错误是否需要先重新获取文档再允许重试
func IsConflict(err error) bool {
	var resolved *AlreadyResolvedError
	var conflict *ConflictError
	return errors.As(err, &resolved) || errors.As(err, &conflict)
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsForbidden 判断是否为权限错误
func IsForbidden(err error) bool {
	var f *ForbiddenError
	return errors.As(err, &f)
}

// IsNotFound 判断是否为不存在错误
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func validationf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// 错误原因,API 错误响应中的 reason 字段
const (
	ReasonValidation        = "validation"
	ReasonForbidden         = "forbidden"
	ReasonAlreadyResolved   = "already_resolved"
	ReasonVersionConflict   = "version_conflict"
	ReasonRetryCeiling      = "retry_ceiling_exceeded"
	ReasonIllegalTransition = "illegal_transition"
	ReasonNotFound          = "not_found"
)

// Reason 返回错误对应的 reason,不是工作流错误时返回空串
func Reason(err error) string {
	var (
		validation *ValidationError
		forbidden  *ForbiddenError
		resolved   *AlreadyResolvedError
		conflict   *ConflictError
		ceiling    *RetryCeilingExceededError
		illegal    *IllegalTransitionError
		notFound   *NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return ReasonValidation
	case errors.As(err, &forbidden):
		return ReasonForbidden
	case errors.As(err, &resolved):
		return ReasonAlreadyResolved
	case errors.As(err, &conflict):
		return ReasonVersionConflict
	case errors.As(err, &ceiling):
		return ReasonRetryCeiling
	case errors.As(err, &illegal):
		return ReasonIllegalTransition
	case errors.As(err, &notFound):
		return ReasonNotFound
	}
	return ""
}
