package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/flashbites/flashbites/internal/cache"
	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/events"
	"github.com/flashbites/flashbites/internal/logger"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/queue"
	"github.com/flashbites/flashbites/internal/repository"
)

// Actor 执行订单操作的主体
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin 判断是否为管理员或系统主体
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin || a.Role == constants.RoleSystem
}

// OrderService 订单服务：生命周期控制与收货验证
type OrderService struct {
	orderRepo      repository.OrderRepository
	claimRepo      repository.ClaimRepository
	restaurantRepo repository.RestaurantRepository
	queueClient    *queue.Client
	otpLength      int
	placedExpire   time.Duration
	otpRateLimit   config.OTPRateLimitConfig
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, claimRepo repository.ClaimRepository, restaurantRepo repository.RestaurantRepository, queueClient *queue.Client, orderCfg config.OrderConfig, otpRateLimit config.OTPRateLimitConfig) *OrderService {
	otpLength := orderCfg.OTPLength
	if otpLength <= 0 {
		otpLength = 4
	}
	expireMinutes := orderCfg.PlacedExpireMinutes
	if expireMinutes <= 0 {
		expireMinutes = 15
	}
	return &OrderService{
		orderRepo:      orderRepo,
		claimRepo:      claimRepo,
		restaurantRepo: restaurantRepo,
		queueClient:    queueClient,
		otpLength:      otpLength,
		placedExpire:   time.Duration(expireMinutes) * time.Minute,
		otpRateLimit:   otpRateLimit,
	}
}

// allowedTransitions 订单状态推进表（取消单独处理）
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPlaced: {
		constants.OrderStatusConfirmed: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusPreparing: true,
	},
	constants.OrderStatusPreparing: {
		constants.OrderStatusReady: true,
	},
	constants.OrderStatusReady: {
		constants.OrderStatusOutForDelivery: true,
	},
	constants.OrderStatusOutForDelivery: {
		constants.OrderStatusDelivered: true,
	},
}

var knownStatuses = map[string]bool{
	constants.OrderStatusPlaced:         true,
	constants.OrderStatusConfirmed:      true,
	constants.OrderStatusPreparing:      true,
	constants.OrderStatusReady:          true,
	constants.OrderStatusOutForDelivery: true,
	constants.OrderStatusDelivered:      true,
	constants.OrderStatusCancelled:      true,
}

func isTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	UserID        uint
	RestaurantID  uint
	AddressID     uint
	Items         []models.OrderItem
	DeliveryFee   models.Money
	Tax           models.Money
	Discount      models.Money
	PaymentMethod string
}

// PlaceOrder 创建订单（初始状态 placed），并注册超时取消任务
func (s *OrderService) PlaceOrder(input PlaceOrderInput) (*models.Order, error) {
	if input.UserID == 0 || input.RestaurantID == 0 || len(input.Items) == 0 {
		return nil, ErrInvalidOrderItem
	}
	restaurant, err := s.restaurantRepo.GetByID(input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}

	subtotal := models.NewMoneyFromFloat(0)
	for i := range input.Items {
		if strings.TrimSpace(input.Items[i].Name) == "" || input.Items[i].Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		lineTotal := input.Items[i].UnitPrice.Mul(models.NewMoneyFromFloat(float64(input.Items[i].Quantity)).Decimal)
		input.Items[i].TotalPrice = models.NewMoneyFromDecimal(lineTotal)
		subtotal = models.NewMoneyFromDecimal(subtotal.Add(lineTotal))
	}
	total := subtotal.Add(input.DeliveryFee.Decimal).Add(input.Tax.Decimal).Sub(input.Discount.Decimal)

	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = constants.PaymentMethodCOD
	}
	order := &models.Order{
		OrderNo:       generateOrderNo(),
		UserID:        input.UserID,
		RestaurantID:  input.RestaurantID,
		AddressID:     input.AddressID,
		Status:        constants.OrderStatusPlaced,
		Subtotal:      subtotal,
		DeliveryFee:   input.DeliveryFee,
		Tax:           input.Tax,
		Discount:      input.Discount,
		Total:         models.NewMoneyFromDecimal(total),
		PaymentMethod: paymentMethod,
		PaymentStatus: constants.PaymentStatusPending,
	}
	if err := s.orderRepo.Create(order, input.Items); err != nil {
		return nil, err
	}

	if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, s.placedExpire); err != nil {
		logger.Warnw("enqueue order timeout cancel failed", "order_id", order.ID, "error", err)
	}
	s.afterTransition(order, constants.OrderStatusPlaced)
	return s.orderRepo.GetByID(order.ID)
}

// GetOrder 按可见性获取订单
func (s *OrderService) GetOrder(orderID uint, actor Actor) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	visible, err := s.canView(order, actor)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 按角色列出订单
func (s *OrderService) ListOrders(actor Actor, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	switch actor.Role {
	case constants.RoleRestaurantOwner:
		restaurant, err := s.restaurantRepo.GetByOwner(actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		if restaurant == nil {
			return []models.Order{}, 0, nil
		}
		filter.RestaurantID = restaurant.ID
		return s.orderRepo.ListByRestaurant(filter)
	case constants.RoleDeliveryPartner:
		filter.PartnerID = actor.UserID
		return s.orderRepo.ListByPartner(filter)
	default:
		filter.UserID = actor.UserID
		return s.orderRepo.ListByUser(filter)
	}
}

// Transition 推进订单状态。条件更新保证并发下至多一个赢家，
// 输家收到 ErrStaleState。
func (s *OrderService) Transition(orderID uint, target string, actor Actor) (*models.Order, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if !knownStatuses[target] {
		return nil, ErrInvalidStatus
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	current := order.Status

	// 同状态重放不是幂等成功，按非法流转拒绝
	if target == current {
		return nil, ErrInvalidTransition
	}
	if target == constants.OrderStatusCancelled {
		if order.IsTerminal() {
			return nil, ErrInvalidTransition
		}
	} else if !isTransitionAllowed(current, target) {
		return nil, ErrInvalidTransition
	}
	// delivered 只能由收货验证码校验进入
	if target == constants.OrderStatusDelivered {
		return nil, ErrInvalidTransition
	}
	if err := s.authorizeTransition(order, target, actor); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{}
	switch target {
	case constants.OrderStatusConfirmed:
		updates["confirmed_at"] = now
		updates["delivery_otp"] = randNumeric(s.otpLength)
	case constants.OrderStatusReady:
		updates["ready_at"] = now
	case constants.OrderStatusOutForDelivery:
		updates["picked_up_at"] = now
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	rows, err := s.orderRepo.UpdateStatusIf(orderID, current, target, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		latest, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, ErrOrderNotFound
		}
		return nil, ErrStaleState
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.afterTransition(updated, target)
	return updated, nil
}

// VerifyDelivery 校验收货验证码并完成订单。验证码条件写入保证单次使用。
func (s *OrderService) VerifyDelivery(orderID uint, suppliedOTP string, actor Actor) (*models.Order, error) {
	suppliedOTP = strings.TrimSpace(suppliedOTP)
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.authorizeVerify(order, actor); err != nil {
		return nil, err
	}
	if err := s.checkOTPRateLimit(orderID); err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusOutForDelivery || order.DeliveryOTP == "" {
		return nil, ErrNoPendingOtp
	}
	if suppliedOTP == "" || suppliedOTP != order.DeliveryOTP {
		return nil, ErrOtpMismatch
	}

	rows, err := s.orderRepo.MarkDeliveredIf(orderID, suppliedOTP, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrStaleState
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.afterTransition(updated, constants.OrderStatusDelivered)
	return updated, nil
}

// CancelStalePlaced 取消超时未确认的订单，返回成功取消的数量
func (s *OrderService) CancelStalePlaced(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	orders, err := s.orderRepo.ListPlacedBefore(cutoff, 200)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for i := range orders {
		rows, err := s.orderRepo.UpdateStatusIf(orders[i].ID, constants.OrderStatusPlaced, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": time.Now(),
		})
		if err != nil {
			logger.Warnw("stale placed cancel failed", "order_id", orders[i].ID, "error", err)
			continue
		}
		if rows == 0 {
			continue
		}
		cancelled++
		if updated, err := s.orderRepo.GetByID(orders[i].ID); err == nil && updated != nil {
			s.afterTransition(updated, constants.OrderStatusCancelled)
		}
	}
	return cancelled, nil
}

// CancelIfStillPlaced 延时任务回调：订单仍未确认则取消
func (s *OrderService) CancelIfStillPlaced(orderID uint) error {
	rows, err := s.orderRepo.UpdateStatusIf(orderID, constants.OrderStatusPlaced, constants.OrderStatusCancelled, map[string]interface{}{
		"cancelled_at": time.Now(),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	if updated, err := s.orderRepo.GetByID(orderID); err == nil && updated != nil {
		s.afterTransition(updated, constants.OrderStatusCancelled)
	}
	return nil
}

// PlacedExpire 下单超时时长
func (s *OrderService) PlacedExpire() time.Duration {
	return s.placedExpire
}

func (s *OrderService) canView(order *models.Order, actor Actor) (bool, error) {
	if actor.IsAdmin() || order.UserID == actor.UserID {
		return true, nil
	}
	if order.PartnerID != nil && *order.PartnerID == actor.UserID {
		return true, nil
	}
	if actor.Role == constants.RoleRestaurantOwner {
		restaurant, err := s.restaurantRepo.GetByID(order.RestaurantID)
		if err != nil {
			return false, err
		}
		return restaurant != nil && restaurant.OwnerID == actor.UserID, nil
	}
	return false, nil
}

func (s *OrderService) authorizeTransition(order *models.Order, target string, actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	switch target {
	case constants.OrderStatusConfirmed, constants.OrderStatusPreparing, constants.OrderStatusReady:
		if actor.Role != constants.RoleRestaurantOwner {
			return ErrUnauthorizedActor
		}
		restaurant, err := s.restaurantRepo.GetByID(order.RestaurantID)
		if err != nil {
			return err
		}
		if restaurant == nil || restaurant.OwnerID != actor.UserID {
			return ErrUnauthorizedActor
		}
		return nil
	case constants.OrderStatusOutForDelivery:
		claim, err := s.claimRepo.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if claim == nil {
			return ErrNoPartnerAssigned
		}
		if actor.Role != constants.RoleDeliveryPartner || claim.PartnerID != actor.UserID {
			return ErrUnauthorizedActor
		}
		return nil
	case constants.OrderStatusCancelled:
		if order.UserID == actor.UserID && actor.Role == constants.RoleCustomer {
			return nil
		}
		if actor.Role == constants.RoleRestaurantOwner {
			restaurant, err := s.restaurantRepo.GetByID(order.RestaurantID)
			if err != nil {
				return err
			}
			if restaurant != nil && restaurant.OwnerID == actor.UserID {
				return nil
			}
		}
		return ErrUnauthorizedActor
	default:
		return ErrUnauthorizedActor
	}
}

func (s *OrderService) authorizeVerify(order *models.Order, actor Actor) error {
	if actor.IsAdmin() || order.UserID == actor.UserID {
		return nil
	}
	claim, err := s.claimRepo.GetByOrderID(order.ID)
	if err != nil {
		return err
	}
	if claim != nil && claim.PartnerID == actor.UserID {
		return nil
	}
	return ErrUnauthorizedActor
}

func (s *OrderService) checkOTPRateLimit(orderID uint) error {
	if !s.otpRateLimit.Enabled || !cache.Enabled() {
		return nil
	}
	window := s.otpRateLimit.WindowSeconds
	if window <= 0 {
		window = 300
	}
	maxAttempts := s.otpRateLimit.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	key := fmt.Sprintf("otp:attempts:%d", orderID)
	count, err := cache.IncrWithTTL(context.Background(), key, time.Duration(window)*time.Second)
	if err != nil {
		logger.Warnw("otp rate limit check failed", "order_id", orderID, "error", err)
		return nil
	}
	if count > int64(maxAttempts) {
		return ErrOtpRateLimited
	}
	return nil
}

// afterTransition 状态落库后的旁路动作：入队通知、发布事件。
// 任何失败只记录日志，不回传给调用方。
func (s *OrderService) afterTransition(order *models.Order, status string) {
	if order == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderEventNotify(queue.OrderEventNotifyPayload{
		OrderID: order.ID,
		Status:  status,
	}); err != nil {
		logger.Warnw("enqueue order event notify failed", "order_id", order.ID, "status", status, "error", err)
	}
	event := events.OrderEvent{
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		NewStatus:    status,
		Timestamp:    time.Now().Unix(),
	}
	if order.PartnerID != nil {
		event.PartnerID = *order.PartnerID
	}
	events.PublishOrderEvent(context.Background(), event)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("FB%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
