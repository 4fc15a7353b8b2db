package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/logger"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/push"
	"github.com/flashbites/flashbites/internal/repository"
	"github.com/flashbites/flashbites/internal/sms"
)

// NotificationEvent 单条通知事件
type NotificationEvent struct {
	Type     string
	Title    string
	Body     string
	Priority string
	Data     models.JSON
	SMSBody  string
}

// ChannelResult 单通道投递结果
type ChannelResult struct {
	Channel string `json:"channel"`
	Result  string `json:"result"`
	Detail  string `json:"detail,omitempty"`
}

// NotificationService 通知网关与订阅注册表
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	subscriptionRepo repository.PushSubscriptionRepository
	userRepo         repository.UserRepository
	restaurantRepo   repository.RestaurantRepository
	orderRepo        repository.OrderRepository
	pushSender       push.Sender
	smsSender        sms.Sender
}

// NewNotificationService 创建通知服务。pushSender/smsSender 允许为 nil，
// 对应通道按 suppressed 处理。
func NewNotificationService(notificationRepo repository.NotificationRepository, subscriptionRepo repository.PushSubscriptionRepository, userRepo repository.UserRepository, restaurantRepo repository.RestaurantRepository, orderRepo repository.OrderRepository, pushSender push.Sender, smsSender sms.Sender) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		restaurantRepo:   restaurantRepo,
		orderRepo:        orderRepo,
		pushSender:       pushSender,
		smsSender:        smsSender,
	}
}

// Notify 向单个用户分发通知：先落库，再逐通道尝试投递。
// 通道失败只会体现在结果与日志里，绝不回传错误影响主流程。
func (s *NotificationService) Notify(ctx context.Context, userID uint, event NotificationEvent) []ChannelResult {
	user, err := s.userRepo.GetByID(userID)
	if err != nil || user == nil {
		logger.Warnw("notification recipient lookup failed", "user_id", userID, "error", err)
		return nil
	}

	priority := event.Priority
	if priority == "" {
		priority = constants.NotificationPriorityMedium
	}
	notification := &models.Notification{
		UserID:   userID,
		Title:    event.Title,
		Body:     event.Body,
		Type:     event.Type,
		Priority: priority,
		DataJSON: event.Data,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		logger.Errorw("notification persist failed", "user_id", userID, "type", event.Type, "error", err)
		return nil
	}

	results := []ChannelResult{
		s.deliverPush(ctx, user, event),
		s.deliverSMS(user, event, priority),
	}

	channels := models.JSON{}
	for _, r := range results {
		entry := map[string]interface{}{"result": r.Result}
		if r.Detail != "" {
			entry["detail"] = r.Detail
		}
		channels[r.Channel] = entry
	}
	if err := s.notificationRepo.UpdateChannelResults(notification.ID, channels); err != nil {
		logger.Warnw("notification channel results update failed", "notification_id", notification.ID, "error", err)
	}
	return results
}

// NotifyMany 向多个用户独立分发，任一接收者失败不影响其他人
func (s *NotificationService) NotifyMany(ctx context.Context, userIDs []uint, event NotificationEvent) {
	for _, userID := range userIDs {
		s.Notify(ctx, userID, event)
	}
}

// deliverPush 推送通道投递：遍历活跃订阅，失效端点停用，
// 其余错误仅记录。任一端点成功即视为通道送达。
func (s *NotificationService) deliverPush(ctx context.Context, user *models.User, event NotificationEvent) ChannelResult {
	result := ChannelResult{Channel: constants.NotificationChannelPush}
	if s.pushSender == nil {
		result.Result = constants.ChannelResultSuppressed
		result.Detail = "push disabled"
		return result
	}
	subs, err := s.subscriptionRepo.ListActiveByUser(user.ID)
	if err != nil {
		result.Result = constants.ChannelResultFailed
		result.Detail = "subscription lookup failed"
		logger.Warnw("push subscription lookup failed", "user_id", user.ID, "error", err)
		return result
	}
	if len(subs) == 0 {
		result.Result = constants.ChannelResultSuppressed
		result.Detail = "no active subscriptions"
		return result
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": event.Title,
		"body":  event.Body,
		"type":  event.Type,
		"data":  event.Data,
	})
	if err != nil {
		result.Result = constants.ChannelResultFailed
		result.Detail = "payload marshal failed"
		return result
	}

	delivered := 0
	for i := range subs {
		if err := s.pushSender.Send(ctx, &subs[i], payload); err != nil {
			if err == push.ErrSubscriptionGone {
				if deactivateErr := s.subscriptionRepo.Deactivate(subs[i].ID); deactivateErr != nil {
					logger.Warnw("push subscription deactivate failed", "subscription_id", subs[i].ID, "error", deactivateErr)
				} else {
					logger.Infow("push subscription deactivated", "subscription_id", subs[i].ID, "user_id", user.ID)
				}
				continue
			}
			logger.Warnw("push delivery failed", "subscription_id", subs[i].ID, "user_id", user.ID, "error", err)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		result.Result = constants.ChannelResultDelivered
		result.Detail = fmt.Sprintf("%d/%d endpoints", delivered, len(subs))
	} else {
		result.Result = constants.ChannelResultFailed
		result.Detail = "all endpoints failed"
	}
	return result
}

// deliverSMS 短信通道投递：仅事件带短信文案或高优先级时尝试
func (s *NotificationService) deliverSMS(user *models.User, event NotificationEvent, priority string) ChannelResult {
	result := ChannelResult{Channel: constants.NotificationChannelSMS}
	body := strings.TrimSpace(event.SMSBody)
	if body == "" && priority == constants.NotificationPriorityHigh {
		body = strings.TrimSpace(event.Body)
	}
	if body == "" {
		result.Result = constants.ChannelResultSuppressed
		result.Detail = "no sms body"
		return result
	}
	if s.smsSender == nil {
		result.Result = constants.ChannelResultSuppressed
		result.Detail = "sms disabled"
		return result
	}
	phone := strings.TrimSpace(user.Phone)
	if phone == "" {
		result.Result = constants.ChannelResultSuppressed
		result.Detail = "no phone on file"
		return result
	}
	if err := s.smsSender.Send(phone, body); err != nil {
		logger.Warnw("sms delivery failed", "user_id", user.ID, "error", err)
		result.Result = constants.ChannelResultFailed
		result.Detail = "gateway error"
		return result
	}
	result.Result = constants.ChannelResultDelivered
	return result
}

// OrderStatusEvent 订单状态事件的通知编排：按状态渲染文案并分发给
// 顾客/商家/配送员。由异步任务处理器调用。
func (s *NotificationService) OrderStatusEvent(ctx context.Context, orderID uint, status string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("order status event for missing order", "order_id", orderID)
		return nil
	}

	if status == constants.NotificationTypePartnerAssigned {
		s.notifyPartnerAssigned(ctx, order)
		return nil
	}

	event, ok := s.customerEvent(order, status)
	if ok {
		s.Notify(ctx, order.UserID, event)
	}

	switch status {
	case constants.OrderStatusConfirmed:
		s.notifyRestaurantOwner(ctx, order, NotificationEvent{
			Type:     constants.NotificationTypeOrderConfirmed,
			Title:    "New Order Received",
			Body:     fmt.Sprintf("New order %s is confirmed and waiting for the kitchen.", order.OrderNo),
			Priority: constants.NotificationPriorityHigh,
			Data:     orderEventData(order),
		})
	case constants.OrderStatusCancelled:
		if order.PartnerID != nil {
			s.Notify(ctx, *order.PartnerID, NotificationEvent{
				Type:     constants.NotificationTypeOrderCancelled,
				Title:    "Delivery Cancelled",
				Body:     fmt.Sprintf("Order %s was cancelled. No pickup needed.", order.OrderNo),
				Priority: constants.NotificationPriorityHigh,
				Data:     orderEventData(order),
			})
		}
	}
	return nil
}

// customerEvent 面向顾客的状态文案
func (s *NotificationService) customerEvent(order *models.Order, status string) (NotificationEvent, bool) {
	data := orderEventData(order)
	switch status {
	case constants.OrderStatusPlaced:
		return NotificationEvent{
			Type:  constants.NotificationTypeOrderPlaced,
			Title: "Order Placed",
			Body:  fmt.Sprintf("Order %s has been placed and sent to the restaurant.", order.OrderNo),
			Data:  data,
		}, true
	case constants.OrderStatusConfirmed:
		return NotificationEvent{
			Type:    constants.NotificationTypeOrderConfirmed,
			Title:   "Order Confirmed",
			Body:    fmt.Sprintf("Order %s is confirmed. The restaurant will start preparing soon.", order.OrderNo),
			Data:    data,
			SMSBody: fmt.Sprintf("FlashBites: order %s confirmed. Your delivery OTP is %s. Share it only when your food arrives.", order.OrderNo, order.DeliveryOTP),
		}, true
	case constants.OrderStatusPreparing:
		return NotificationEvent{
			Type:  constants.NotificationTypeOrderPreparing,
			Title: "Order Being Prepared",
			Body:  fmt.Sprintf("The kitchen is working on order %s.", order.OrderNo),
			Data:  data,
		}, true
	case constants.OrderStatusReady:
		return NotificationEvent{
			Type:  constants.NotificationTypeOrderReady,
			Title: "Order Ready",
			Body:  fmt.Sprintf("Order %s is packed and waiting for a delivery partner.", order.OrderNo),
			Data:  data,
		}, true
	case constants.OrderStatusOutForDelivery:
		partnerName := s.partnerName(order)
		return NotificationEvent{
			Type:    constants.NotificationTypeOrderOutForDelivery,
			Title:   "Out for Delivery",
			Body:    fmt.Sprintf("Order %s is on the way with %s.", order.OrderNo, partnerName),
			Data:    data,
			SMSBody: fmt.Sprintf("FlashBites: order %s is out for delivery with %s. Keep your OTP ready.", order.OrderNo, partnerName),
		}, true
	case constants.OrderStatusDelivered:
		return NotificationEvent{
			Type:    constants.NotificationTypeOrderDelivered,
			Title:   "Order Delivered",
			Body:    fmt.Sprintf("Order %s has been delivered. Enjoy your meal!", order.OrderNo),
			Data:    data,
			SMSBody: fmt.Sprintf("FlashBites: order %s delivered. Thank you for ordering!", order.OrderNo),
		}, true
	case constants.OrderStatusCancelled:
		return NotificationEvent{
			Type:     constants.NotificationTypeOrderCancelled,
			Title:    "Order Cancelled",
			Body:     fmt.Sprintf("Order %s has been cancelled.", order.OrderNo),
			Priority: constants.NotificationPriorityHigh,
			Data:     data,
		}, true
	}
	return NotificationEvent{}, false
}

// notifyPartnerAssigned 接单成功：分别通知配送员与顾客
func (s *NotificationService) notifyPartnerAssigned(ctx context.Context, order *models.Order) {
	data := orderEventData(order)
	if order.PartnerID != nil {
		s.Notify(ctx, *order.PartnerID, NotificationEvent{
			Type:  constants.NotificationTypePartnerAssigned,
			Title: "Delivery Assigned",
			Body:  fmt.Sprintf("You claimed order %s. Head to the restaurant for pickup.", order.OrderNo),
			Data:  data,
		})
	}
	s.Notify(ctx, order.UserID, NotificationEvent{
		Type:  constants.NotificationTypePartnerAssigned,
		Title: "Delivery Partner Assigned",
		Body:  fmt.Sprintf("A delivery partner has been assigned to order %s.", order.OrderNo),
		Data:  data,
	})
}

func (s *NotificationService) notifyRestaurantOwner(ctx context.Context, order *models.Order, event NotificationEvent) {
	restaurant, err := s.restaurantRepo.GetByID(order.RestaurantID)
	if err != nil || restaurant == nil {
		logger.Warnw("restaurant lookup for notification failed", "restaurant_id", order.RestaurantID, "error", err)
		return
	}
	s.Notify(ctx, restaurant.OwnerID, event)
}

func (s *NotificationService) partnerName(order *models.Order) string {
	if order.PartnerID == nil {
		return "your delivery partner"
	}
	partner, err := s.userRepo.GetByID(*order.PartnerID)
	if err != nil || partner == nil || strings.TrimSpace(partner.DisplayName) == "" {
		return "your delivery partner"
	}
	return partner.DisplayName
}

func orderEventData(order *models.Order) models.JSON {
	return models.JSON{
		"order_id": order.ID,
		"order_no": order.OrderNo,
		"status":   order.Status,
	}
}

// Subscribe 注册（或刷新）推送订阅
func (s *NotificationService) Subscribe(userID uint, endpoint, p256dh, auth, deviceType string) (*models.PushSubscription, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.TrimSpace(p256dh) == "" || strings.TrimSpace(auth) == "" {
		return nil, ErrSubscriptionInvalid
	}
	deviceType = strings.TrimSpace(deviceType)
	if deviceType == "" {
		deviceType = constants.DeviceTypeWeb
	}
	sub := &models.PushSubscription{
		UserID:     userID,
		Endpoint:   endpoint,
		P256dh:     strings.TrimSpace(p256dh),
		Auth:       strings.TrimSpace(auth),
		DeviceType: deviceType,
	}
	if err := s.subscriptionRepo.Upsert(sub); err != nil {
		return nil, err
	}
	return s.subscriptionRepo.GetByEndpoint(endpoint)
}

// Unsubscribe 删除用户自己的订阅
func (s *NotificationService) Unsubscribe(userID uint, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ErrSubscriptionInvalid
	}
	rows, err := s.subscriptionRepo.DeleteByEndpointAndUser(endpoint, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSubscriptionInvalid
	}
	return nil
}

// ListNotifications 用户通知列表
func (s *NotificationService) ListNotifications(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(filter)
}

// CountUnread 未读通知数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(id uint, userID uint) error {
	rows, err := s.notificationRepo.MarkRead(id, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		notification, err := s.notificationRepo.GetByIDAndUser(id, userID)
		if err != nil {
			return err
		}
		if notification == nil {
			return ErrNotificationNotFound
		}
	}
	return nil
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}
