package public

import (
	"strings"

	"github.com/flashbites/flashbites/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SubscribePushRequest 注册浏览器推送订阅请求
type SubscribePushRequest struct {
	Endpoint   string `json:"endpoint" binding:"required"`
	P256dh     string `json:"p256dh" binding:"required"`
	Auth       string `json:"auth" binding:"required"`
	DeviceType string `json:"device_type"`
}

// UnsubscribePushRequest 注销推送订阅请求
type UnsubscribePushRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// SubscribePush 注册（或刷新）推送订阅
func (h *Handler) SubscribePush(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req SubscribePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	subscription, err := h.NotificationService.Subscribe(uid,
		strings.TrimSpace(req.Endpoint),
		strings.TrimSpace(req.P256dh),
		strings.TrimSpace(req.Auth),
		strings.TrimSpace(req.DeviceType),
	)
	if err != nil {
		respondWithMappedError(c, err, pushSubscriptionErrorRules, response.CodeInternal, "error.notification_update_failed")
		return
	}
	response.Success(c, subscription)
}

// UnsubscribePush 注销推送订阅
func (h *Handler) UnsubscribePush(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req UnsubscribePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.NotificationService.Unsubscribe(uid, strings.TrimSpace(req.Endpoint)); err != nil {
		respondWithMappedError(c, err, pushSubscriptionErrorRules, response.CodeInternal, "error.notification_update_failed")
		return
	}
	response.Success(c, nil)
}
