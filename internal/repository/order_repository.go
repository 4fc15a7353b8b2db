package repository

import (
	"errors"
	"time"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListByRestaurant(filter OrderListFilter) ([]models.Order, int64, error)
	ListByPartner(filter OrderListFilter) ([]models.Order, int64, error)
	ListReadyUnclaimed(limit int) ([]models.Order, error)
	ListPlacedBefore(cutoff time.Time, limit int) ([]models.Order, error)
	UpdateStatusIf(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	AssignPartnerIf(id uint, partnerID uint) (int64, error)
	MarkDeliveredIf(id uint, otp string, deliveredAt time.Time) (int64, error)
	CountByPartnerAndStatus(partnerID uint, status string, from *time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Claim").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Claim").
		Where("order_no = ?", orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户自己的订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("Claim").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) list(query *gorm.DB, filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.ActiveOnly {
		query = query.Where("status NOT IN ?", []string{constants.OrderStatusDelivered, constants.OrderStatusCancelled})
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var orders []models.Order
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByUser 获取用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	return r.list(query, filter)
}

// ListByRestaurant 获取餐厅订单列表
func (r *GormOrderRepository) ListByRestaurant(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("restaurant_id = ?", filter.RestaurantID)
	return r.list(query, filter)
}

// ListByPartner 获取配送员名下订单列表
func (r *GormOrderRepository) ListByPartner(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("partner_id = ?", filter.PartnerID)
	return r.list(query, filter)
}

// ListReadyUnclaimed 获取待接单的出餐订单（未分配配送员）
func (r *GormOrderRepository) ListReadyUnclaimed(limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Preload("Items").
		Where("status = ? AND partner_id IS NULL", constants.OrderStatusReady).
		Order("ready_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPlacedBefore 获取超过时限仍未确认的下单订单（超时取消巡检用）
func (r *GormOrderRepository) ListPlacedBefore(cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.
		Where("status = ? AND created_at < ?", constants.OrderStatusPlaced, cutoff).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatusIf 条件更新订单状态：仅当当前状态匹配时生效，返回影响行数。
// 并发竞争下失败方的影响行数为 0，由调用方据此判定过期写入。
func (r *GormOrderRepository) UpdateStatusIf(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AssignPartnerIf 条件分配配送员：仅当订单处于出餐状态且尚未分配时生效。
func (r *GormOrderRepository) AssignPartnerIf(id uint, partnerID uint) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND partner_id IS NULL", id, constants.OrderStatusReady).
		Update("partner_id", partnerID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkDeliveredIf 条件完成订单：仅当订单在途且验证码匹配时生效，
// 同一条件写入会清空验证码，保证单次使用。
func (r *GormOrderRepository) MarkDeliveredIf(id uint, otp string, deliveredAt time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND delivery_otp = ?", id, constants.OrderStatusOutForDelivery, otp).
		Updates(map[string]interface{}{
			"status":       constants.OrderStatusDelivered,
			"delivery_otp": "",
			"delivered_at": deliveredAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByPartnerAndStatus 统计配送员名下指定状态的订单数
func (r *GormOrderRepository) CountByPartnerAndStatus(partnerID uint, status string, from *time.Time) (int64, error) {
	query := r.db.Model(&models.Order{}).Where("partner_id = ? AND status = ?", partnerID, status)
	if from != nil {
		query = query.Where("delivered_at >= ?", *from)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
