package constants

// 订单状态常量
const (
	OrderStatusPlaced         = "placed"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// 用户角色常量
const (
	RoleCustomer        = "customer"
	RoleRestaurantOwner = "restaurant_owner"
	RoleDeliveryPartner = "delivery_partner"
	RoleAdmin           = "admin"
	RoleSystem          = "system"
)

// 用户账号状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 支付方式常量（支付网关为外部协作方，本服务只读）
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// 支付状态常量（只读）
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 通知事件类型常量
const (
	NotificationTypeOrderPlaced         = "order_placed"
	NotificationTypeOrderConfirmed      = "order_confirmed"
	NotificationTypeOrderPreparing      = "order_preparing"
	NotificationTypeOrderReady          = "order_ready"
	NotificationTypeOrderOutForDelivery = "order_out_for_delivery"
	NotificationTypeOrderDelivered      = "order_delivered"
	NotificationTypeOrderCancelled      = "order_cancelled"
	NotificationTypePartnerAssigned     = "partner_assigned"
)

// 通知优先级常量
const (
	NotificationPriorityLow    = "low"
	NotificationPriorityMedium = "medium"
	NotificationPriorityHigh   = "high"
)

// 通知渠道常量
const (
	NotificationChannelPush = "push"
	NotificationChannelSMS  = "sms"
)

// 通知渠道结果常量
const (
	ChannelResultDelivered  = "delivered"
	ChannelResultSuppressed = "suppressed"
	ChannelResultFailed     = "failed"
)

// 推送设备类型常量
const (
	DeviceTypeWeb     = "web"
	DeviceTypeAndroid = "android"
	DeviceTypeIOS     = "ios"
)

// 异步任务名称常量
const (
	TaskOrderEventNotify   = "order:event_notify"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 语言常量
const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// 事件流频道
const (
	OrderEventChannel = "orders:events"
)
