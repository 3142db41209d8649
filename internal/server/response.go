package server

import (
	"errors"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/service"
)

// 统一响应信封：{"success": bool, "data": ..., "error": "..."}

func respondOK(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(iris.Map{"success": true, "data": data})
}

func respondCreated(ctx iris.Context, data interface{}) {
	ctx.StatusCode(iris.StatusCreated)
	_ = ctx.JSON(iris.Map{"success": true, "data": data})
}

func respondFail(ctx iris.Context, status int, msg string) {
	ctx.StopWithJSON(status, iris.Map{"success": false, "error": msg})
}

// respondErr 按业务错误分类映射状态码。
// 未分类错误一律 500，细节只进日志，避免把驱动报错泄露给客户端。
func respondErr(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		respondFail(ctx, iris.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondFail(ctx, iris.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondFail(ctx, iris.StatusUnauthorized, err.Error())
	default:
		service.GetMonitor().RecordDBError()
		zap.L().Error("internal error",
			zap.String("path", ctx.Path()),
			zap.Error(err))
		respondFail(ctx, iris.StatusInternalServerError, "internal server error")
	}
}
