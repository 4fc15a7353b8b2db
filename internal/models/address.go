package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 收货地址表
type Address struct {
	ID        uint           `gorm:"primarykey" json:"id"`          // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"` // 用户ID
	Label     string         `gorm:"default:''" json:"label"`       // 标签（home/work）
	Line      string         `gorm:"type:varchar(500)" json:"line"` // 地址文本
	Latitude  float64        `gorm:"not null" json:"latitude"`      // 纬度
	Longitude float64        `gorm:"not null" json:"longitude"`     // 经度
	CreatedAt time.Time      `gorm:"index" json:"created_at"`       // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
