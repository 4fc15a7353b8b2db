package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	UserID       uint
	RestaurantID uint
	PartnerID    uint
	Status       string
	OrderNo      string
	ActiveOnly   bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	Type       string
	UnreadOnly bool
}

// ClaimListFilter 查询配送接单记录的过滤条件
type ClaimListFilter struct {
	Page      int
	PageSize  int
	PartnerID uint
	From      *time.Time
	To        *time.Time
}
