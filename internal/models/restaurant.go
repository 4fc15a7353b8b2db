package models

import (
	"time"

	"gorm.io/gorm"
)

// Restaurant 餐厅表
type Restaurant struct {
	ID          uint           `gorm:"primarykey" json:"id"`                  // 主键
	OwnerID     uint           `gorm:"index;not null" json:"owner_id"`        // 店主用户ID
	Name        string         `gorm:"not null" json:"name"`                  // 餐厅名称
	Phone       string         `json:"phone"`                                 // 联系电话
	AddressLine string         `gorm:"type:varchar(500)" json:"address_line"` // 地址
	Latitude    float64        `gorm:"not null" json:"latitude"`              // 纬度（外部地理编码服务写入）
	Longitude   float64        `gorm:"not null" json:"longitude"`             // 经度
	IsOpen      bool           `gorm:"default:true" json:"is_open"`           // 营业状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`               // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间
}

// TableName 指定表名
func (Restaurant) TableName() string {
	return "restaurants"
}
