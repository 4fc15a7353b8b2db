package events

import (
	"context"
	"encoding/json"

	"github.com/flashbites/flashbites/internal/cache"
	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/logger"
)

// OrderEvent 订单状态事件（广播给在线客户端）
type OrderEvent struct {
	OrderID      uint   `json:"order_id"`
	OrderNo      string `json:"order_no"`
	UserID       uint   `json:"user_id"`
	RestaurantID uint   `json:"restaurant_id"`
	PartnerID    uint   `json:"partner_id,omitempty"`
	NewStatus    string `json:"new_status"`
	Timestamp    int64  `json:"timestamp"`
}

// PublishOrderEvent 发布订单状态事件，失败仅记录日志
func PublishOrderEvent(ctx context.Context, event OrderEvent) {
	if !cache.Enabled() {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warnw("order event marshal failed", "order_id", event.OrderID, "error", err)
		return
	}
	if err := cache.Publish(ctx, constants.OrderEventChannel, payload); err != nil {
		logger.Warnw("order event publish failed", "order_id", event.OrderID, "error", err)
	}
}

// SubscribeOrderEvents 订阅订单状态事件流。缓存未启用时返回 nil 通道，
// 调用方降级为仅心跳。
func SubscribeOrderEvents(ctx context.Context) (<-chan OrderEvent, func()) {
	sub := cache.Subscribe(ctx, constants.OrderEventChannel)
	if sub == nil {
		return nil, func() {}
	}
	out := make(chan OrderEvent, 16)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event OrderEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Warnw("order event decode failed", "error", err)
					continue
				}
				select {
				case out <- event:
				default:
					// 慢消费者丢弃事件，避免阻塞订阅循环
				}
			}
		}
	}()
	return out, func() { _ = sub.Close() }
}
