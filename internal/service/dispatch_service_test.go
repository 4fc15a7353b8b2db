package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/queue"
	"github.com/flashbites/flashbites/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type dispatchFixture struct {
	db        *gorm.DB
	service   *DispatchService
	orderRepo *repository.GormOrderRepository
	claimRepo *repository.GormClaimRepository
	partner   models.User
	rival     models.User
	customer  models.User
}

func setupDispatchServiceTest(t *testing.T) *dispatchFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:dispatch_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryClaim{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	f := &dispatchFixture{db: db}
	f.customer = models.User{Email: "eater@test.local", PasswordHash: "hash", Role: constants.RoleCustomer}
	f.partner = models.User{Email: "rider@test.local", PasswordHash: "hash", Role: constants.RoleDeliveryPartner}
	f.rival = models.User{Email: "rival@test.local", PasswordHash: "hash", Role: constants.RoleDeliveryPartner}
	for _, user := range []*models.User{&f.customer, &f.partner, &f.rival} {
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	f.orderRepo = repository.NewOrderRepository(db)
	f.claimRepo = repository.NewClaimRepository(db)
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	f.service = NewDispatchService(
		db,
		f.orderRepo,
		f.claimRepo,
		repository.NewRestaurantRepository(db),
		repository.NewUserRepository(db),
		queueClient,
		config.DispatchConfig{RadiusKM: 10, AvailableSize: 50},
	)
	return f
}

func (f *dispatchFixture) createRestaurant(t *testing.T, name string, lat, lng float64) models.Restaurant {
	t.Helper()
	restaurant := models.Restaurant{OwnerID: 9000, Name: name, Latitude: lat, Longitude: lng, AddressLine: name + " street"}
	if err := f.db.Create(&restaurant).Error; err != nil {
		t.Fatalf("create restaurant failed: %v", err)
	}
	return restaurant
}

func (f *dispatchFixture) createOrder(t *testing.T, restaurantID uint, status string) models.Order {
	t.Helper()
	now := time.Now()
	order := models.Order{
		OrderNo:       fmt.Sprintf("FB-test-%d-%d", restaurantID, time.Now().UnixNano()),
		UserID:        f.customer.ID,
		RestaurantID:  restaurantID,
		Status:        status,
		Total:         models.NewMoneyFromDecimal(decimal.RequireFromString("20.00")),
		PaymentMethod: constants.PaymentMethodCOD,
		PaymentStatus: constants.PaymentStatusPending,
	}
	if status == constants.OrderStatusReady {
		order.ReadyAt = &now
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestClaimFirstWins(t *testing.T) {
	f := setupDispatchServiceTest(t)
	restaurant := f.createRestaurant(t, "Wok", 31.23, 121.47)
	order := f.createOrder(t, restaurant.ID, constants.OrderStatusReady)

	claimed, err := f.service.Claim(order.ID, f.partner.ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed.PartnerID == nil || *claimed.PartnerID != f.partner.ID {
		t.Fatalf("expected partner %d assigned, got %+v", f.partner.ID, claimed.PartnerID)
	}

	claim, err := f.claimRepo.GetByOrderID(order.ID)
	if err != nil || claim == nil {
		t.Fatalf("expected claim record, err=%v", err)
	}
	if claim.PartnerID != f.partner.ID {
		t.Fatalf("expected claim by partner %d, got %d", f.partner.ID, claim.PartnerID)
	}

	// 第二个配送员竞争失败
	if _, err := f.service.Claim(order.ID, f.rival.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	// 同一配送员重复接单也一样
	if _, err := f.service.Claim(order.ID, f.partner.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed on replay, got %v", err)
	}
}

func TestClaimRejectsNotReadyOrder(t *testing.T) {
	f := setupDispatchServiceTest(t)
	restaurant := f.createRestaurant(t, "Wok", 31.23, 121.47)
	order := f.createOrder(t, restaurant.ID, constants.OrderStatusPreparing)

	if _, err := f.service.Claim(order.ID, f.partner.ID); !errors.Is(err, ErrOrderNotReady) {
		t.Fatalf("expected ErrOrderNotReady, got %v", err)
	}
	if _, err := f.service.Claim(9999, f.partner.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestClaimRejectsInvalidPartner(t *testing.T) {
	f := setupDispatchServiceTest(t)
	restaurant := f.createRestaurant(t, "Wok", 31.23, 121.47)
	order := f.createOrder(t, restaurant.ID, constants.OrderStatusReady)

	// 顾客角色不能接单
	if _, err := f.service.Claim(order.ID, f.customer.ID); !errors.Is(err, ErrPartnerInvalid) {
		t.Fatalf("expected ErrPartnerInvalid, got %v", err)
	}

	// 停用的配送员不能接单
	if err := f.db.Model(&models.User{}).Where("id = ?", f.rival.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable partner failed: %v", err)
	}
	if _, err := f.service.Claim(order.ID, f.rival.ID); !errors.Is(err, ErrPartnerInvalid) {
		t.Fatalf("expected ErrPartnerInvalid for disabled partner, got %v", err)
	}
}

func TestListAvailableFiltersByDistance(t *testing.T) {
	f := setupDispatchServiceTest(t)
	near := f.createRestaurant(t, "Near", 31.2300, 121.4700)
	far := f.createRestaurant(t, "Far", 32.0000, 122.5000)
	nearer := f.createRestaurant(t, "Nearer", 31.2310, 121.4710)

	f.createOrder(t, near.ID, constants.OrderStatusReady)
	f.createOrder(t, far.ID, constants.OrderStatusReady)
	f.createOrder(t, nearer.ID, constants.OrderStatusReady)
	f.createOrder(t, near.ID, constants.OrderStatusPreparing) // 未出餐，不可接

	lat, lng := 31.2315, 121.4720
	available, err := f.service.ListAvailable(f.partner.ID, &lat, &lng)
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 orders within radius, got %d", len(available))
	}
	// 就近排序
	if available[0].RestaurantName != "Nearer" {
		t.Fatalf("expected nearest first, got %s", available[0].RestaurantName)
	}
	if available[0].DistanceKM == nil || *available[0].DistanceKM > *available[1].DistanceKM {
		t.Fatalf("expected ascending distance order")
	}
}

func TestListAvailableWithoutCoordinates(t *testing.T) {
	f := setupDispatchServiceTest(t)
	near := f.createRestaurant(t, "Near", 31.23, 121.47)
	far := f.createRestaurant(t, "Far", 32.00, 122.50)
	f.createOrder(t, near.ID, constants.OrderStatusReady)
	f.createOrder(t, far.ID, constants.OrderStatusReady)

	available, err := f.service.ListAvailable(f.partner.ID, nil, nil)
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	// 无坐标时不做距离过滤
	if len(available) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(available))
	}
	if available[0].DistanceKM != nil {
		t.Fatalf("expected no distance without coordinates")
	}
}

func TestListAssignedAndHistory(t *testing.T) {
	f := setupDispatchServiceTest(t)
	restaurant := f.createRestaurant(t, "Wok", 31.23, 121.47)

	active := f.createOrder(t, restaurant.ID, constants.OrderStatusReady)
	if _, err := f.service.Claim(active.ID, f.partner.ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	done := f.createOrder(t, restaurant.ID, constants.OrderStatusReady)
	if _, err := f.service.Claim(done.ID, f.partner.ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	deliveredAt := time.Now()
	if err := f.db.Model(&models.Order{}).Where("id = ?", done.ID).Updates(map[string]interface{}{
		"status":       constants.OrderStatusDelivered,
		"delivered_at": deliveredAt,
	}).Error; err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}

	assigned, total, err := f.service.ListAssigned(f.partner.ID, 1, 10)
	if err != nil || total != 1 || len(assigned) != 1 || assigned[0].ID != active.ID {
		t.Fatalf("assigned list mismatch: total=%d err=%v", total, err)
	}
	history, total, err := f.service.ListHistory(f.partner.ID, 1, 10)
	if err != nil || total != 1 || len(history) != 1 || history[0].ID != done.ID {
		t.Fatalf("history list mismatch: total=%d err=%v", total, err)
	}
}

func TestPartnerStats(t *testing.T) {
	f := setupDispatchServiceTest(t)
	restaurant := f.createRestaurant(t, "Wok", 31.23, 121.47)

	for i := 0; i < 2; i++ {
		order := f.createOrder(t, restaurant.ID, constants.OrderStatusReady)
		if _, err := f.service.Claim(order.ID, f.partner.ID); err != nil {
			t.Fatalf("claim failed: %v", err)
		}
		deliveredAt := time.Now()
		if i == 1 {
			deliveredAt = deliveredAt.Add(-48 * time.Hour)
		}
		if err := f.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"status":       constants.OrderStatusDelivered,
			"delivered_at": deliveredAt,
		}).Error; err != nil {
			t.Fatalf("mark delivered failed: %v", err)
		}
	}

	inflight := f.createOrder(t, restaurant.ID, constants.OrderStatusReady)
	if _, err := f.service.Claim(inflight.ID, f.partner.ID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	stats, err := f.service.Stats(f.partner.ID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalDelivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", stats.TotalDelivered)
	}
	if stats.TodayDelivered != 1 {
		t.Fatalf("expected 1 delivered today, got %d", stats.TodayDelivered)
	}
	if stats.TodayClaims != 3 {
		t.Fatalf("expected 3 claims today, got %d", stats.TodayClaims)
	}
	if stats.Active != 1 {
		t.Fatalf("expected 1 active, got %d", stats.Active)
	}
}

func TestUpdateLocationValidatesBounds(t *testing.T) {
	f := setupDispatchServiceTest(t)

	if err := f.service.UpdateLocation(f.partner.ID, 91, 0); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
	if err := f.service.UpdateLocation(f.partner.ID, 0, -181); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
	if err := f.service.UpdateLocation(f.partner.ID, 31.23, 121.47); err != nil {
		t.Fatalf("update location failed: %v", err)
	}

	var user models.User
	if err := f.db.First(&user, f.partner.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.Latitude == nil || *user.Latitude != 31.23 || user.LocationUpdatedAt == nil {
		t.Fatalf("expected location to be stored, got %+v", user)
	}
}

func TestHaversineKM(t *testing.T) {
	// 上海人民广场到陆家嘴约 2.7 公里
	distance := haversineKM(31.2304, 121.4737, 31.2397, 121.4998)
	if distance < 2 || distance > 4 {
		t.Fatalf("unexpected distance: %f", distance)
	}
	if haversineKM(31.23, 121.47, 31.23, 121.47) != 0 {
		t.Fatalf("expected zero distance for same point")
	}
}
