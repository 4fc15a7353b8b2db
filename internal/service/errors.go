package service

import "errors"

// 订单生命周期
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrStaleState        = errors.New("order state changed concurrently")
	ErrUnauthorizedActor = errors.New("actor not permitted for this transition")
	ErrNoPartnerAssigned = errors.New("order has no delivery partner assigned")
)

// 收货验证
var (
	ErrOtpMismatch    = errors.New("delivery otp mismatch")
	ErrNoPendingOtp   = errors.New("no pending delivery otp")
	ErrOtpRateLimited = errors.New("too many otp attempts")
)

// 配送调度
var (
	ErrOrderNotReady  = errors.New("order not ready for pickup")
	ErrAlreadyClaimed = errors.New("order already claimed by another partner")
	ErrPartnerInvalid = errors.New("delivery partner invalid")
)

// 通知与订阅
var (
	ErrSubscriptionInvalid  = errors.New("push subscription invalid")
	ErrNotificationNotFound = errors.New("notification not found")
)

// 基础资源
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrAddressNotFound    = errors.New("address not found")
	ErrInvalidOrderItem   = errors.New("invalid order item")
	ErrInvalidLocation    = errors.New("invalid coordinates")
)
