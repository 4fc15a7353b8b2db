package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（顾客/商家/配送员/管理员共用一张表，按角色区分）
type User struct {
	ID           uint   `gorm:"primarykey" json:"id"`              // 主键
	Email        string `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	Phone        string `gorm:"index" json:"phone"`                // 手机号（短信通道使用）
	PasswordHash string `gorm:"not null" json:"-"`                 // 密码哈希（不返回给前端）
	DisplayName  string `gorm:"default:''" json:"display_name"`    // 昵称
	Role         string `gorm:"index;not null" json:"role"`        // 角色
	Locale       string `gorm:"default:'en-US'" json:"locale"`     // 语言偏好
	Status       string `gorm:"default:'active'" json:"status"`    // 账号状态

	// 配送员实时位置（由 PUT /partner/location 更新）
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	LocationUpdatedAt *time.Time `json:"location_updated_at,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"` // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
