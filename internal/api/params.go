package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseIDParam 解析路径中的数字 ID,非法时直接写 400 响应
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid "+name, "expected a positive integer, got "+strconv.Quote(raw))
		return 0, false
	}
	return uint(id), true
}
