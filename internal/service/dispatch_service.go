package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/events"
	"github.com/flashbites/flashbites/internal/logger"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/queue"
	"github.com/flashbites/flashbites/internal/repository"

	"gorm.io/gorm"
)

// DispatchService 配送调度服务：可接单列表与接单仲裁
type DispatchService struct {
	db             *gorm.DB
	orderRepo      *repository.GormOrderRepository
	claimRepo      *repository.GormClaimRepository
	restaurantRepo repository.RestaurantRepository
	userRepo       repository.UserRepository
	queueClient    *queue.Client
	radiusKM       float64
	availableSize  int
}

// NewDispatchService 创建配送调度服务
func NewDispatchService(db *gorm.DB, orderRepo *repository.GormOrderRepository, claimRepo *repository.GormClaimRepository, restaurantRepo repository.RestaurantRepository, userRepo repository.UserRepository, queueClient *queue.Client, cfg config.DispatchConfig) *DispatchService {
	size := cfg.AvailableSize
	if size <= 0 {
		size = 50
	}
	return &DispatchService{
		db:             db,
		orderRepo:      orderRepo,
		claimRepo:      claimRepo,
		restaurantRepo: restaurantRepo,
		userRepo:       userRepo,
		queueClient:    queueClient,
		radiusKM:       cfg.RadiusKM,
		availableSize:  size,
	}
}

// AvailableOrder 可接单视图
type AvailableOrder struct {
	Order          models.Order `json:"order"`
	RestaurantName string       `json:"restaurant_name"`
	PickupAddress  string       `json:"pickup_address"`
	DistanceKM     *float64     `json:"distance_km,omitempty"`
}

// PartnerStats 配送员统计
type PartnerStats struct {
	TotalDelivered int64 `json:"total_delivered"`
	TodayDelivered int64 `json:"today_delivered"`
	TodayClaims    int64 `json:"today_claims"`
	Cancelled      int64 `json:"cancelled"`
	Active         int64 `json:"active"`
}

// ListAvailable 列出可接单的出餐订单。提供坐标时按距离过滤并就近排序。
func (s *DispatchService) ListAvailable(partnerID uint, lat, lng *float64) ([]AvailableOrder, error) {
	orders, err := s.orderRepo.ListReadyUnclaimed(s.availableSize)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []AvailableOrder{}, nil
	}

	restaurantIDs := make([]uint, 0, len(orders))
	seen := map[uint]bool{}
	for i := range orders {
		if !seen[orders[i].RestaurantID] {
			seen[orders[i].RestaurantID] = true
			restaurantIDs = append(restaurantIDs, orders[i].RestaurantID)
		}
	}
	restaurants, err := s.restaurantRepo.ListByIDs(restaurantIDs)
	if err != nil {
		return nil, err
	}
	restaurantByID := make(map[uint]models.Restaurant, len(restaurants))
	for i := range restaurants {
		restaurantByID[restaurants[i].ID] = restaurants[i]
	}

	available := make([]AvailableOrder, 0, len(orders))
	for i := range orders {
		restaurant, ok := restaurantByID[orders[i].RestaurantID]
		if !ok {
			continue
		}
		row := AvailableOrder{
			Order:          orders[i],
			RestaurantName: restaurant.Name,
			PickupAddress:  restaurant.AddressLine,
		}
		if lat != nil && lng != nil {
			distance := haversineKM(*lat, *lng, restaurant.Latitude, restaurant.Longitude)
			if s.radiusKM > 0 && distance > s.radiusKM {
				continue
			}
			row.DistanceKM = &distance
		}
		available = append(available, row)
	}
	if lat != nil && lng != nil {
		sort.SliceStable(available, func(i, j int) bool {
			return *available[i].DistanceKM < *available[j].DistanceKM
		})
	}
	return available, nil
}

// Claim 接单。单事务内条件占用订单并写入接单记录：
// 首个提交者获胜，竞争失败按当前状态归因。
func (s *DispatchService) Claim(orderID uint, partnerID uint) (*models.Order, error) {
	partner, err := s.userRepo.GetByID(partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil || partner.Role != constants.RoleDeliveryPartner || partner.Status != constants.UserStatusActive {
		return nil, ErrPartnerInvalid
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	claimErr := s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.WithTx(tx).AssignPartnerIf(orderID, partnerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errClaimLost
		}
		return s.claimRepo.WithTx(tx).Create(&models.DeliveryClaim{
			OrderID:   orderID,
			PartnerID: partnerID,
			ClaimedAt: time.Now(),
		})
	})
	if claimErr != nil {
		if errors.Is(claimErr, errClaimLost) || isUniqueViolation(claimErr) {
			return nil, s.classifyClaimFailure(orderID)
		}
		return nil, claimErr
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.afterClaim(updated, partnerID)
	return updated, nil
}

// ListAssigned 配送员当前在途订单（已接但未送达/取消）
func (s *DispatchService) ListAssigned(partnerID uint, page, pageSize int) ([]models.Order, int64, error) {
	return s.orderRepo.ListByPartner(repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		PartnerID:  partnerID,
		ActiveOnly: true,
	})
}

// ListHistory 配送员已完结订单
func (s *DispatchService) ListHistory(partnerID uint, page, pageSize int) ([]models.Order, int64, error) {
	return s.orderRepo.ListByPartner(repository.OrderListFilter{
		Page:      page,
		PageSize:  pageSize,
		PartnerID: partnerID,
		Status:    constants.OrderStatusDelivered,
	})
}

// Stats 配送员统计数据
func (s *DispatchService) Stats(partnerID uint) (*PartnerStats, error) {
	totalDelivered, err := s.orderRepo.CountByPartnerAndStatus(partnerID, constants.OrderStatusDelivered, nil)
	if err != nil {
		return nil, err
	}
	todayStart := time.Now().Truncate(24 * time.Hour)
	todayDelivered, err := s.orderRepo.CountByPartnerAndStatus(partnerID, constants.OrderStatusDelivered, &todayStart)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.orderRepo.CountByPartnerAndStatus(partnerID, constants.OrderStatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	outForDelivery, err := s.orderRepo.CountByPartnerAndStatus(partnerID, constants.OrderStatusOutForDelivery, nil)
	if err != nil {
		return nil, err
	}
	ready, err := s.orderRepo.CountByPartnerAndStatus(partnerID, constants.OrderStatusReady, nil)
	if err != nil {
		return nil, err
	}
	_, todayClaims, err := s.claimRepo.ListByPartner(repository.ClaimListFilter{
		PartnerID: partnerID,
		From:      &todayStart,
		Page:      1,
		PageSize:  1,
	})
	if err != nil {
		return nil, err
	}
	return &PartnerStats{
		TotalDelivered: totalDelivered,
		TodayDelivered: todayDelivered,
		TodayClaims:    todayClaims,
		Cancelled:      cancelled,
		Active:         outForDelivery + ready,
	}, nil
}

// UpdateLocation 更新配送员实时位置
func (s *DispatchService) UpdateLocation(partnerID uint, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidLocation
	}
	return s.userRepo.UpdateLocation(partnerID, lat, lng, time.Now())
}

var errClaimLost = errors.New("claim condition not met")

// classifyClaimFailure 竞争失败归因：已被占用还是状态不在出餐
func (s *DispatchService) classifyClaimFailure(orderID uint) error {
	claim, err := s.claimRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if claim != nil {
		return ErrAlreadyClaimed
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.PartnerID != nil {
		return ErrAlreadyClaimed
	}
	return ErrOrderNotReady
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") || strings.Contains(message, "duplicate")
}

// afterClaim 接单成功后的旁路动作：通知 + 事件，失败仅记录日志
func (s *DispatchService) afterClaim(order *models.Order, partnerID uint) {
	if order == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderEventNotify(queue.OrderEventNotifyPayload{
		OrderID: order.ID,
		Status:  constants.NotificationTypePartnerAssigned,
	}); err != nil {
		logger.Warnw("enqueue partner assigned notify failed", "order_id", order.ID, "error", err)
	}
	events.PublishOrderEvent(context.Background(), events.OrderEvent{
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		PartnerID:    partnerID,
		NewStatus:    order.Status,
		Timestamp:    time.Now().Unix(),
	})
}

// haversineKM 球面距离（公里）
func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371.0
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
