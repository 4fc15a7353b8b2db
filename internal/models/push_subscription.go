package models

import "time"

// PushSubscription 推送订阅表（一个用户可有多个端点）
type PushSubscription struct {
	ID         uint      `gorm:"primarykey" json:"id"`                 // 主键
	UserID     uint      `gorm:"index;not null" json:"user_id"`        // 所属用户ID
	Endpoint   string    `gorm:"uniqueIndex;not null" json:"endpoint"` // 推送端点
	P256dh     string    `gorm:"not null" json:"-"`                    // 加密公钥
	Auth       string    `gorm:"not null" json:"-"`                    // 鉴权密钥
	DeviceType string    `gorm:"default:'web'" json:"device_type"`     // 设备类型
	Active     bool      `gorm:"index;default:true" json:"active"`     // 激活标记（网关报告失效后置 false，不会自动恢复）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`              // 更新时间
}

// TableName 指定表名
func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
