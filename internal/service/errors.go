package service

import (
	"errors"

	"gorm.io/gorm"
)

// 业务错误分类，HTTP 层据此映射状态码。
var (
	// ErrValidation 请求字段缺失或非法 -> 400
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 实体不存在 -> 404
	ErrNotFound = errors.New("not found")
	// ErrConflict 唯一约束冲突（邮箱、slug 重复）-> 400
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized 凭证无效 -> 401
	ErrUnauthorized = errors.New("unauthorized")
)

// notFoundOr 把 gorm 的记录缺失统一翻译为 ErrNotFound，
// 其余数据库错误原样返回（只进日志，不回给客户端）。
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
