package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID           uint   `gorm:"primarykey" json:"id"`                 // 主键
	OrderNo      string `gorm:"uniqueIndex;not null" json:"order_no"` // 订单编号
	UserID       uint   `gorm:"index;not null" json:"user_id"`        // 下单用户ID
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`  // 餐厅ID
	PartnerID    *uint  `gorm:"index" json:"partner_id,omitempty"`    // 配送员ID（接单后非空）
	AddressID    uint   `gorm:"index;not null" json:"address_id"`     // 收货地址ID
	Status       string `gorm:"index;not null" json:"status"`         // 订单状态

	// 金额在创建时一次性计算，之后不再变更
	Subtotal    Money `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 商品小计
	DeliveryFee Money `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"` // 配送费
	Tax         Money `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`          // 税费
	Discount    Money `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 优惠金额
	Total       Money `gorm:"type:decimal(20,2);not null;default:0" json:"total"`        // 实付金额

	// 配送确认 OTP：确认订单时生成，送达核销后清空，不随订单返回
	DeliveryOTP string `gorm:"type:varchar(8)" json:"-"`

	// 支付字段由支付协作方写入，本服务只读
	PaymentMethod string `gorm:"default:'cod'" json:"payment_method"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"`

	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`  // 确认时间
	ReadyAt     *time.Time     `json:"ready_at,omitempty"`      // 出餐时间
	PickedUpAt  *time.Time     `json:"picked_up_at,omitempty"`  // 取餐时间
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`  // 送达时间
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`  // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"` // 创建（下单）时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"` // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间（终态订单保留）

	Items []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	Claim *DeliveryClaim `gorm:"foreignKey:OrderID" json:"claim,omitempty"` // 配送认领记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// IsTerminal 判断订单是否处于终态
func (o *Order) IsTerminal() bool {
	return o.Status == "delivered" || o.Status == "cancelled"
}
