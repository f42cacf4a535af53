package handler

import (
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/response"
	"SetMatch/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

func currentUserID(c *gin.Context) uint64 {
	return c.GetUint64(consts.UserIDKey)
}

// bindFailed 绑定失败统一返回参数错误，校验错误交给 response 处理
func bindFailed(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		response.Error(c, err)
		return
	}
	log.DebugContext(c.Request.Context(), "bind request error", "err", err)
	response.Error(c, service.ErrParamInvalid)
}
