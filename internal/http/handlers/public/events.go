package public

import (
	"encoding/json"
	"time"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/events"

	"github.com/gin-gonic/gin"
)

const eventStreamHeartbeat = 25 * time.Second

// StreamOrderEvents 订单状态事件流（SSE）。
// 只下发当前用户可见的事件；事件总线不可用时降级为仅心跳。
func (h *Handler) StreamOrderEvents(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	// 餐厅老板按餐厅过滤事件
	var restaurantID uint
	if actor.Role == constants.RoleRestaurantOwner {
		restaurant, err := h.RestaurantRepo.GetByOwner(actor.UserID)
		if err == nil && restaurant != nil {
			restaurantID = restaurant.ID
		}
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	ctx := c.Request.Context()
	eventCh, cancel := events.SubscribeOrderEvents(ctx)
	defer cancel()

	heartbeat := time.NewTicker(eventStreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			c.Writer.Flush()
		case event, ok := <-eventCh:
			if !ok {
				// 总线断开后退回仅心跳，连接保持可用
				eventCh = nil
				continue
			}
			if !eventVisibleTo(event, actor.UserID, actor.Role, restaurantID) {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			c.SSEvent("order_status", string(payload))
			c.Writer.Flush()
		}
	}
}

func eventVisibleTo(event events.OrderEvent, userID uint, role string, restaurantID uint) bool {
	switch role {
	case constants.RoleAdmin, constants.RoleSystem:
		return true
	case constants.RoleRestaurantOwner:
		return restaurantID != 0 && event.RestaurantID == restaurantID
	case constants.RoleDeliveryPartner:
		// 出餐事件向全体配送员广播：转入 ready 时订单进入可接单列表，
		// 接单事件携带接单方 PartnerID，其余配送端据此移除该订单
		if event.NewStatus == constants.OrderStatusReady {
			return true
		}
		return event.PartnerID == userID
	default:
		return event.UserID == userID
	}
}
