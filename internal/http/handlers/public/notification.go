package public

import (
	"strconv"
	"strings"

	"github.com/flashbites/flashbites/internal/http/response"
	"github.com/flashbites/flashbites/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListMyNotifications 获取当前用户通知列表
func (h *Handler) ListMyNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uid,
		Type:       strings.TrimSpace(c.Query("type")),
		UnreadOnly: c.Query("unread") == "1" || c.Query("unread") == "true",
	}

	notifications, total, err := h.NotificationService.ListNotifications(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.notification_fetch_failed", err)
		return
	}
	unread, err := h.NotificationService.CountUnread(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.notification_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	}, pagination)
}

// MarkNotificationRead 标记单条通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.NotificationService.MarkRead(uint(notificationID), uid); err != nil {
		respondWithMappedError(c, err, notificationErrorRules, response.CodeInternal, "error.notification_update_failed")
		return
	}
	response.Success(c, nil)
}

// MarkAllNotificationsRead 标记全部通知已读
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.NotificationService.MarkAllRead(uid); err != nil {
		respondError(c, response.CodeInternal, "error.notification_update_failed", err)
		return
	}
	response.Success(c, nil)
}
