package i18n

import "github.com/flashbites/flashbites/internal/constants"

var catalogs = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.bad_request":  "invalid request",
		"error.unauthorized": "unauthorized",
		"error.forbidden":    "forbidden",
		"error.not_found":    "resource not found",
		"error.internal":     "internal server error",

		"error.user_id_invalid":      "invalid user id",
		"error.user_id_type_invalid": "invalid user id type",

		"error.jwt_secret_missing":     "authentication is not configured",
		"error.auth_header_missing":    "authorization header missing",
		"error.auth_header_invalid":    "authorization header invalid",
		"error.token_invalid":          "invalid or expired token",
		"error.user_disabled":          "account disabled",
		"error.rate_limited":           "too many requests, try again in %d seconds",
		"error.rate_limit_unavailable": "rate limiter unavailable",

		"error.order_not_found":          "order not found",
		"error.order_status_invalid":     "unknown order status",
		"error.order_transition_invalid": "order status transition not allowed",
		"error.order_state_stale":        "order was updated by someone else, please refresh",
		"error.order_actor_forbidden":    "you are not allowed to perform this action on the order",
		"error.order_no_partner":         "no delivery partner assigned yet",
		"error.order_fetch_failed":       "failed to fetch order",
		"error.order_update_failed":      "failed to update order",

		"error.otp_mismatch":     "delivery code does not match",
		"error.otp_not_pending":  "no delivery code pending for this order",
		"error.otp_rate_limited": "too many attempts, try again later",

		"error.order_not_ready":       "order is not ready for pickup",
		"error.order_already_claimed": "order was already claimed by another partner",
		"error.partner_invalid":       "delivery partner account invalid",
		"error.location_invalid":      "invalid coordinates",
		"error.dispatch_fetch_failed": "failed to fetch available orders",
		"error.stats_fetch_failed":    "failed to fetch partner stats",

		"error.subscription_invalid":       "push subscription invalid",
		"error.notification_not_found":     "notification not found",
		"error.notification_fetch_failed":  "failed to fetch notifications",
		"error.notification_update_failed": "failed to update notification",
	},
	constants.LocaleZhCN: {
		"error.bad_request":  "请求参数无效",
		"error.unauthorized": "未登录或凭证失效",
		"error.forbidden":    "没有权限",
		"error.not_found":    "资源不存在",
		"error.internal":     "服务器内部错误",

		"error.user_id_invalid":      "用户标识无效",
		"error.user_id_type_invalid": "用户标识类型无效",

		"error.jwt_secret_missing":     "鉴权未配置",
		"error.auth_header_missing":    "缺少鉴权头",
		"error.auth_header_invalid":    "鉴权头格式无效",
		"error.token_invalid":          "令牌无效或已过期",
		"error.user_disabled":          "账号已被禁用",
		"error.rate_limited":           "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable": "限流服务不可用",

		"error.order_not_found":          "订单不存在",
		"error.order_status_invalid":     "未知的订单状态",
		"error.order_transition_invalid": "订单状态不允许该流转",
		"error.order_state_stale":        "订单已被他人更新，请刷新后重试",
		"error.order_actor_forbidden":    "无权对该订单执行此操作",
		"error.order_no_partner":         "订单尚未分配配送员",
		"error.order_fetch_failed":       "获取订单失败",
		"error.order_update_failed":      "更新订单失败",

		"error.otp_mismatch":     "收货验证码不正确",
		"error.otp_not_pending":  "该订单没有待核销的验证码",
		"error.otp_rate_limited": "尝试过于频繁，请稍后再试",

		"error.order_not_ready":       "订单未处于可接单状态",
		"error.order_already_claimed": "订单已被其他配送员接走",
		"error.partner_invalid":       "配送员账号无效",
		"error.location_invalid":      "坐标无效",
		"error.dispatch_fetch_failed": "获取可接单列表失败",
		"error.stats_fetch_failed":    "获取配送统计失败",

		"error.subscription_invalid":       "推送订阅无效",
		"error.notification_not_found":     "通知不存在",
		"error.notification_fetch_failed":  "获取通知失败",
		"error.notification_update_failed": "更新通知失败",
	},
}
