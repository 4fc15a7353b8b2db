package repository

import (
	"errors"

	"github.com/flashbites/flashbites/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PushSubscriptionRepository 推送订阅数据访问接口
type PushSubscriptionRepository interface {
	Upsert(sub *models.PushSubscription) error
	GetByEndpoint(endpoint string) (*models.PushSubscription, error)
	ListActiveByUser(userID uint) ([]models.PushSubscription, error)
	ListActiveByUsers(userIDs []uint) ([]models.PushSubscription, error)
	Deactivate(id uint) error
	DeleteByEndpointAndUser(endpoint string, userID uint) (int64, error)
}

// GormPushSubscriptionRepository GORM 实现
type GormPushSubscriptionRepository struct {
	db *gorm.DB
}

// NewPushSubscriptionRepository 创建推送订阅仓库
func NewPushSubscriptionRepository(db *gorm.DB) *GormPushSubscriptionRepository {
	return &GormPushSubscriptionRepository{db: db}
}

// Upsert 按 endpoint 幂等写入订阅。重复订阅会刷新密钥并重新激活，
// 同一浏览器换用户登录时归属也随之转移。
func (r *GormPushSubscriptionRepository) Upsert(sub *models.PushSubscription) error {
	sub.Active = true
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "device_type", "active", "updated_at"}),
	}).Create(sub).Error
}

// GetByEndpoint 根据 endpoint 获取订阅
func (r *GormPushSubscriptionRepository) GetByEndpoint(endpoint string) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	if err := r.db.Where("endpoint = ?", endpoint).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListActiveByUser 获取用户全部活跃订阅
func (r *GormPushSubscriptionRepository) ListActiveByUser(userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := r.db.Where("user_id = ? AND active = ?", userID, true).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// ListActiveByUsers 批量获取多个用户的活跃订阅
func (r *GormPushSubscriptionRepository) ListActiveByUsers(userIDs []uint) ([]models.PushSubscription, error) {
	if len(userIDs) == 0 {
		return []models.PushSubscription{}, nil
	}
	var subs []models.PushSubscription
	if err := r.db.Where("user_id IN ? AND active = ?", userIDs, true).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Deactivate 停用失效订阅（推送网关返回端点已消失时调用，不会自动恢复）
func (r *GormPushSubscriptionRepository) Deactivate(id uint) error {
	return r.db.Model(&models.PushSubscription{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// DeleteByEndpointAndUser 用户主动退订时删除订阅，返回影响行数
func (r *GormPushSubscriptionRepository) DeleteByEndpointAndUser(endpoint string, userID uint) (int64, error) {
	result := r.db.Where("endpoint = ? AND user_id = ?", endpoint, userID).
		Delete(&models.PushSubscription{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
