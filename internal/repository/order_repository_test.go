package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.DeliveryClaim{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createTestOrder(t *testing.T, db *gorm.DB, status string, partnerID *uint) models.Order {
	t.Helper()
	now := time.Now()
	order := models.Order{
		OrderNo:       fmt.Sprintf("FB-repo-%d", time.Now().UnixNano()),
		UserID:        1,
		RestaurantID:  1,
		Status:        status,
		PartnerID:     partnerID,
		Total:         models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")),
		PaymentMethod: constants.PaymentMethodCOD,
		PaymentStatus: constants.PaymentStatusPending,
	}
	if status == constants.OrderStatusReady {
		order.ReadyAt = &now
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestUpdateStatusIfConditionalWrite(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, db, constants.OrderStatusPlaced, nil)

	rows, err := repo.UpdateStatusIf(order.ID, constants.OrderStatusPlaced, constants.OrderStatusConfirmed, map[string]interface{}{
		"confirmed_at": time.Now(),
	})
	if err != nil || rows != 1 {
		t.Fatalf("expected 1 row, got rows=%d err=%v", rows, err)
	}

	// 前置状态已不匹配，写入不生效
	rows, err = repo.UpdateStatusIf(order.ID, constants.OrderStatusPlaced, constants.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("conditional update errored: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected stale write to affect 0 rows, got %d", rows)
	}

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusConfirmed || got.ConfirmedAt == nil {
		t.Fatalf("unexpected order state: %+v", got)
	}
}

func TestAssignPartnerIfSingleWinner(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, db, constants.OrderStatusReady, nil)

	rows, err := repo.AssignPartnerIf(order.ID, 7)
	if err != nil || rows != 1 {
		t.Fatalf("expected first assign to win, rows=%d err=%v", rows, err)
	}
	// 已分配后再尝试不生效
	rows, err = repo.AssignPartnerIf(order.ID, 8)
	if err != nil || rows != 0 {
		t.Fatalf("expected second assign to lose, rows=%d err=%v", rows, err)
	}

	got, _ := repo.GetByID(order.ID)
	if got.PartnerID == nil || *got.PartnerID != 7 {
		t.Fatalf("expected partner 7, got %+v", got.PartnerID)
	}

	// 非出餐状态不可分配
	preparing := createTestOrder(t, db, constants.OrderStatusPreparing, nil)
	rows, err = repo.AssignPartnerIf(preparing.ID, 7)
	if err != nil || rows != 0 {
		t.Fatalf("expected assign on preparing to fail, rows=%d err=%v", rows, err)
	}
}

func TestMarkDeliveredIfConsumesOtp(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	partnerID := uint(7)
	order := createTestOrder(t, db, constants.OrderStatusOutForDelivery, &partnerID)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("delivery_otp", "4321").Error; err != nil {
		t.Fatalf("set otp failed: %v", err)
	}

	// 验证码不匹配
	rows, err := repo.MarkDeliveredIf(order.ID, "0000", time.Now())
	if err != nil || rows != 0 {
		t.Fatalf("expected otp mismatch to affect 0 rows, rows=%d err=%v", rows, err)
	}

	rows, err = repo.MarkDeliveredIf(order.ID, "4321", time.Now())
	if err != nil || rows != 1 {
		t.Fatalf("expected delivery to succeed, rows=%d err=%v", rows, err)
	}

	got, _ := repo.GetByID(order.ID)
	if got.Status != constants.OrderStatusDelivered || got.DeliveredAt == nil {
		t.Fatalf("unexpected order state: %+v", got)
	}
	if got.DeliveryOTP != "" {
		t.Fatalf("expected otp to be cleared")
	}

	// 验证码已消费，重放不生效
	rows, err = repo.MarkDeliveredIf(order.ID, "4321", time.Now())
	if err != nil || rows != 0 {
		t.Fatalf("expected replay to affect 0 rows, rows=%d err=%v", rows, err)
	}
}

func TestClaimUniqueIndexBlocksDoubleInsert(t *testing.T) {
	_, db := setupOrderRepositoryTest(t)
	claims := NewClaimRepository(db)

	if err := claims.Create(&models.DeliveryClaim{OrderID: 1, PartnerID: 7, ClaimedAt: time.Now()}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if err := claims.Create(&models.DeliveryClaim{OrderID: 1, PartnerID: 8, ClaimedAt: time.Now()}); err == nil {
		t.Fatalf("expected unique violation for duplicate order claim")
	}
}

func TestListReadyUnclaimed(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	partnerID := uint(7)

	ready := createTestOrder(t, db, constants.OrderStatusReady, nil)
	createTestOrder(t, db, constants.OrderStatusReady, &partnerID) // 已被接
	createTestOrder(t, db, constants.OrderStatusPreparing, nil)    // 未出餐

	orders, err := repo.ListReadyUnclaimed(10)
	if err != nil {
		t.Fatalf("list ready unclaimed failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != ready.ID {
		t.Fatalf("expected only the unclaimed ready order, got %d", len(orders))
	}
}

func TestListPlacedBefore(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	stale := createTestOrder(t, db, constants.OrderStatusPlaced, nil)
	createTestOrder(t, db, constants.OrderStatusPlaced, nil)

	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Order{}).Where("id = ?", stale.ID).Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	orders, err := repo.ListPlacedBefore(time.Now().Add(-30*time.Minute), 10)
	if err != nil {
		t.Fatalf("list placed before failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != stale.ID {
		t.Fatalf("expected only the stale order, got %d", len(orders))
	}
}

func TestListByPartnerActiveOnly(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	partnerID := uint(7)

	active := createTestOrder(t, db, constants.OrderStatusOutForDelivery, &partnerID)
	createTestOrder(t, db, constants.OrderStatusDelivered, &partnerID)
	createTestOrder(t, db, constants.OrderStatusCancelled, &partnerID)

	orders, total, err := repo.ListByPartner(OrderListFilter{Page: 1, PageSize: 10, PartnerID: partnerID, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list by partner failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].ID != active.ID {
		t.Fatalf("expected only active order, total=%d", total)
	}

	_, total, err = repo.ListByPartner(OrderListFilter{Page: 1, PageSize: 10, PartnerID: partnerID, Status: constants.OrderStatusDelivered})
	if err != nil || total != 1 {
		t.Fatalf("expected 1 delivered order, total=%d err=%v", total, err)
	}
}
