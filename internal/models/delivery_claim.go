package models

import "time"

// DeliveryClaim 配送认领表：一个订单至多存在一条认领记录。
// order_id 上的唯一索引是“至多一个配送员”不变量的存储层兜底。
type DeliveryClaim struct {
	ID        uint      `gorm:"primarykey" json:"id"`                 // 主键
	OrderID   uint      `gorm:"uniqueIndex;not null" json:"order_id"` // 订单ID
	PartnerID uint      `gorm:"index;not null" json:"partner_id"`     // 配送员ID
	ClaimedAt time.Time `gorm:"index;not null" json:"claimed_at"`     // 认领时间
}

// TableName 指定表名
func (DeliveryClaim) TableName() string {
	return "delivery_claims"
}
