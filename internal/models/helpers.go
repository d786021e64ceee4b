package models

import (
	"github.com/google/uuid"
)

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}

// NewID 生成唯一ID,供其他包使用(运行ID/临时文件名)
func NewID() string {
	return generateID()
}
