package models

import "time"

// Notification 通知记录表
type Notification struct {
	ID           uint      `gorm:"primarykey" json:"id"`               // 主键
	UserID       uint      `gorm:"index;not null" json:"user_id"`      // 接收人ID
	Title        string    `gorm:"not null" json:"title"`              // 标题
	Body         string    `gorm:"type:text" json:"body"`              // 内容
	Type         string    `gorm:"index;not null" json:"type"`         // 事件类型
	Priority     string    `gorm:"default:'medium'" json:"priority"`   // 优先级
	DataJSON     JSON      `gorm:"type:json" json:"data"`              // 附加数据（订单号等）
	ChannelsJSON JSON      `gorm:"type:json" json:"channels"`          // 各渠道投递结果
	IsRead       bool      `gorm:"index;default:false" json:"is_read"` // 已读标记
	CreatedAt    time.Time `gorm:"index" json:"created_at"`            // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
