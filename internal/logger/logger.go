package logger

import (
	"sync"

	"go.uber.org/zap"
)

var once sync.Once

// Init 初始化全局 zap 日志器，之后统一通过 zap.L() 使用。
func Init() {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			// 生产配置构建失败时退回到开发配置
			l = zap.Must(zap.NewDevelopment())
		}
		zap.ReplaceGlobals(l)
	})
}
