package repository

import (
	"errors"

	"github.com/flashbites/flashbites/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByIDAndUser(id uint, userID uint) (*models.Notification, error)
	ListByUser(filter NotificationListFilter) ([]models.Notification, int64, error)
	CountUnread(userID uint) (int64, error)
	UpdateChannelResults(id uint, channels models.JSON) error
	MarkRead(id uint, userID uint) (int64, error)
	MarkAllRead(userID uint) error
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 写入通知记录
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByIDAndUser 获取用户自己的通知
func (r *GormNotificationRepository) GetByIDAndUser(id uint, userID uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

// ListByUser 获取用户通知列表
func (r *GormNotificationRepository) ListByUser(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", filter.UserID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var notifications []models.Notification
	if err := query.Order("id desc").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread 统计未读通知数
func (r *GormNotificationRepository) CountUnread(userID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateChannelResults 回写各通道投递结果
func (r *GormNotificationRepository) UpdateChannelResults(id uint, channels models.JSON) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("channels_json", channels).Error
}

// MarkRead 标记单条通知已读，返回影响行数
func (r *GormNotificationRepository) MarkRead(id uint, userID uint) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkAllRead 标记用户全部通知已读
func (r *GormNotificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
