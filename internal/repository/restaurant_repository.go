package repository

import (
	"errors"

	"github.com/flashbites/flashbites/internal/models"

	"gorm.io/gorm"
)

// RestaurantRepository 餐厅数据访问接口
type RestaurantRepository interface {
	GetByID(id uint) (*models.Restaurant, error)
	GetByOwner(ownerID uint) (*models.Restaurant, error)
	ListByIDs(ids []uint) ([]models.Restaurant, error)
	Create(restaurant *models.Restaurant) error
	Update(restaurant *models.Restaurant) error
}

// GormRestaurantRepository GORM 实现
type GormRestaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository 创建餐厅仓库
func NewRestaurantRepository(db *gorm.DB) *GormRestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

// GetByID 根据 ID 获取餐厅
func (r *GormRestaurantRepository) GetByID(id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.First(&restaurant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &restaurant, nil
}

// GetByOwner 根据店主获取餐厅
func (r *GormRestaurantRepository) GetByOwner(ownerID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &restaurant, nil
}

// ListByIDs 批量获取餐厅
func (r *GormRestaurantRepository) ListByIDs(ids []uint) ([]models.Restaurant, error) {
	if len(ids) == 0 {
		return []models.Restaurant{}, nil
	}
	var restaurants []models.Restaurant
	if err := r.db.Where("id IN ?", ids).Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Create 创建餐厅
func (r *GormRestaurantRepository) Create(restaurant *models.Restaurant) error {
	return r.db.Create(restaurant).Error
}

// Update 更新餐厅
func (r *GormRestaurantRepository) Update(restaurant *models.Restaurant) error {
	return r.db.Save(restaurant).Error
}
