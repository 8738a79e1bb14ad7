package flow

import (
	"errors"
	"fmt"
)

// Kind 错误类别,所有引擎错误同步返回给调用方并携带稳定的类别
type Kind string

const (
	KindValidation    Kind = "validation"    // 参数校验失败(如驳回缺少意见)
	KindNotFound      Kind = "not_found"     // 配置/节点/任务/实例不存在
	KindConflict      Kind = "conflict"      // 状态竞争(任务已被处理、实例重复、重复分发)
	KindConfig        Kind = "config"        // 流程配置异常(缺少审核节点、链断裂),不可自动重试
	KindAuthorization Kind = "authorization" // 操作人不是任务处理人
)

// Error 引擎错误,携带类别与描述
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError 创建指定类别的引擎错误
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError 包装底层错误并附加类别
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf 创建参数校验错误
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf 创建不存在错误
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf 创建状态竞争错误
func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Configf 创建流程配置错误
func Configf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// Authorizationf 创建越权错误
func Authorizationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// KindOf 提取错误类别,非引擎错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
