package repository

import (
	"errors"

	"github.com/flashbites/flashbites/internal/models"

	"gorm.io/gorm"
)

// ClaimRepository 配送接单记录数据访问接口
type ClaimRepository interface {
	Create(claim *models.DeliveryClaim) error
	GetByOrderID(orderID uint) (*models.DeliveryClaim, error)
	ListByPartner(filter ClaimListFilter) ([]models.DeliveryClaim, int64, error)
	WithTx(tx *gorm.DB) *GormClaimRepository
}

// GormClaimRepository GORM 实现
type GormClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository 创建配送接单仓库
func NewClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClaimRepository) WithTx(tx *gorm.DB) *GormClaimRepository {
	if tx == nil {
		return r
	}
	return &GormClaimRepository{db: tx}
}

// Create 写入接单记录。order_id 上的唯一索引保证同一订单至多一条记录，
// 竞争失败方会收到唯一约束冲突。
func (r *GormClaimRepository) Create(claim *models.DeliveryClaim) error {
	return r.db.Create(claim).Error
}

// GetByOrderID 根据订单 ID 获取接单记录
func (r *GormClaimRepository) GetByOrderID(orderID uint) (*models.DeliveryClaim, error) {
	var claim models.DeliveryClaim
	if err := r.db.Where("order_id = ?", orderID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// ListByPartner 获取配送员的接单记录列表
func (r *GormClaimRepository) ListByPartner(filter ClaimListFilter) ([]models.DeliveryClaim, int64, error) {
	query := r.db.Model(&models.DeliveryClaim{}).Where("partner_id = ?", filter.PartnerID)
	if filter.From != nil {
		query = query.Where("claimed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("claimed_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var claims []models.DeliveryClaim
	if err := query.Order("id desc").Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}
