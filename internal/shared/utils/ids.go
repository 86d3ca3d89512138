package utils

import "github.com/google/uuid"

// NewID 生成实体主键（城市、建筑、队列项）。
func NewID() string {
	return uuid.NewString()
}

// IsID 校验路径参数里的 id 格式。
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
