package public

import (
	"strconv"
	"strings"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/http/response"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 订单状态流转请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// VerifyDeliveryRequest 收货验证请求
type VerifyDeliveryRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// orderDetailView 订单详情视图。仅对下单顾客在配送途中展示收货验证码。
type orderDetailView struct {
	*models.Order
	DeliveryOTP string `json:"delivery_otp,omitempty"`
}

// ListOrders 获取订单列表（按登录角色确定可见范围）
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	orderNo := strings.TrimSpace(c.Query("order_no"))

	orders, total, err := h.OrderService.ListOrders(actor, repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   status,
		OrderNo:  orderNo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.GetOrder(uint(orderID), actor)
	if err != nil {
		respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}

	view := orderDetailView{Order: order}
	if order.UserID == actor.UserID && order.Status == constants.OrderStatusOutForDelivery {
		view.DeliveryOTP = order.DeliveryOTP
	}
	response.Success(c, view)
}

// UpdateOrderStatus 推进订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.Transition(uint(orderID), strings.TrimSpace(req.Status), actor)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}

	response.Success(c, order)
}

// VerifyDelivery 顾客侧收货验证（验证码核销）
func (h *Handler) VerifyDelivery(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req VerifyDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.VerifyDelivery(uint(orderID), strings.TrimSpace(req.OTP), actor)
	if err != nil {
		respondVerifyDeliveryError(c, err)
		return
	}

	response.Success(c, order)
}
