package partner

import (
	"strconv"
	"strings"

	"github.com/flashbites/flashbites/internal/http/response"

	"github.com/gin-gonic/gin"
)

// DeliverRequest 送达确认请求
type DeliverRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// UpdateLocationRequest 位置上报请求
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// ListAvailableOrders 可接单列表。携带坐标时按距离过滤并就近排序。
func (h *Handler) ListAvailableOrders(c *gin.Context) {
	uid, ok := getPartnerID(c)
	if !ok {
		return
	}

	var lat, lng *float64
	if raw := strings.TrimSpace(c.Query("lat")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.location_invalid", err)
			return
		}
		lat = &value
	}
	if raw := strings.TrimSpace(c.Query("lng")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.location_invalid", err)
			return
		}
		lng = &value
	}
	if (lat == nil) != (lng == nil) {
		respondError(c, response.CodeBadRequest, "error.location_invalid", nil)
		return
	}

	orders, err := h.DispatchService.ListAvailable(uid, lat, lng)
	if err != nil {
		respondError(c, response.CodeInternal, "error.dispatch_fetch_failed", err)
		return
	}
	response.Success(c, orders)
}

// ClaimOrder 接单。并发竞争下至多一人成功。
func (h *Handler) ClaimOrder(c *gin.Context) {
	uid, ok := getPartnerID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.DispatchService.Claim(uint(orderID), uid)
	if err != nil {
		respondWithMappedError(c, err, claimErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// ListAssignedOrders 在途订单列表
func (h *Handler) ListAssignedOrders(c *gin.Context) {
	uid, ok := getPartnerID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.DispatchService.ListAssigned(uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// ListOrderHistory 已完结订单列表
func (h *Handler) ListOrderHistory(c *gin.Context) {
	uid, ok := getPartnerID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.DispatchService.ListHistory(uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetStats 配送统计
func (h *Handler) GetStats(c *gin.Context) {
	uid, ok := getPartnerID(c)
	if !ok {
		return
	}

	stats, err := h.DispatchService.Stats(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stats_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// DeliverOrder 配送员送达确认（验证码核销）
func (h *Handler) DeliverOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req DeliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.VerifyDelivery(uint(orderID), strings.TrimSpace(req.OTP), actor)
	if err != nil {
		respondWithMappedError(c, err, deliverErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// UpdateLocation 上报实时位置
func (h *Handler) UpdateLocation(c *gin.Context) {
	uid, ok := getPartnerID(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.DispatchService.UpdateLocation(uid, req.Latitude, req.Longitude); err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, nil)
}
