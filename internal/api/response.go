package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neo-jack/1LoanManagemen/internal/flow"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`    // 状态码: 0 表示成功,非 0 表示失败
	Message string      `json:"message"` // 响应消息
	Data    interface{} `json:"data"`    // 响应数据
}

// ErrorResponse 错误响应格式
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情(可选)
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// RespondError 将服务层错误映射为 HTTP 响应
// 校验错误 400,越权 403,不存在 404,状态冲突 409,配置缺陷和其余错误 500
func RespondError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch flow.KindOf(err) {
	case flow.KindValidation:
		code = http.StatusBadRequest
	case flow.KindAuthorization:
		code = http.StatusForbidden
	case flow.KindNotFound:
		code = http.StatusNotFound
	case flow.KindConflict:
		code = http.StatusConflict
	case flow.KindConfig:
		code = http.StatusInternalServerError
	}

	message := err.Error()
	detail := ""
	var flowErr *flow.Error
	if errors.As(err, &flowErr) {
		message = flowErr.Message
		if flowErr.Err != nil {
			detail = flowErr.Err.Error()
		}
	} else if code == http.StatusInternalServerError {
		// 内部错误不向客户端透出底层细节
		message = "internal server error"
		detail = ""
	}

	Error(c, code, message, detail)
}
