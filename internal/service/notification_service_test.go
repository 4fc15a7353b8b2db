package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/push"
	"github.com/flashbites/flashbites/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// fakePushSender 按端点返回预设错误的推送桩
type fakePushSender struct {
	sent     []string
	failWith map[string]error
}

func (s *fakePushSender) Send(ctx context.Context, sub *models.PushSubscription, payload []byte) error {
	if err, ok := s.failWith[sub.Endpoint]; ok {
		return err
	}
	s.sent = append(s.sent, sub.Endpoint)
	return nil
}

// fakeSMSSender 记录发送并可整体失败的短信桩
type fakeSMSSender struct {
	sent []string
	err  error
}

func (s *fakeSMSSender) Send(phone, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, phone+"|"+body)
	return nil
}

type notificationFixture struct {
	db       *gorm.DB
	service  *NotificationService
	pushStub *fakePushSender
	smsStub  *fakeSMSSender
	subRepo  *repository.GormPushSubscriptionRepository
	noteRepo *repository.GormNotificationRepository
	user     models.User
}

func setupNotificationServiceTest(t *testing.T) *notificationFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.Notification{},
		&models.PushSubscription{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	f := &notificationFixture{
		db:       db,
		pushStub: &fakePushSender{failWith: map[string]error{}},
		smsStub:  &fakeSMSSender{},
		subRepo:  repository.NewPushSubscriptionRepository(db),
		noteRepo: repository.NewNotificationRepository(db),
	}
	f.user = models.User{Email: "notify@test.local", PasswordHash: "hash", Role: constants.RoleCustomer, Phone: "+10000000009"}
	if err := db.Create(&f.user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	f.service = NewNotificationService(
		f.noteRepo,
		f.subRepo,
		repository.NewUserRepository(db),
		repository.NewRestaurantRepository(db),
		repository.NewOrderRepository(db),
		f.pushStub,
		f.smsStub,
	)
	return f
}

func (f *notificationFixture) subscribe(t *testing.T, endpoint string) *models.PushSubscription {
	t.Helper()
	sub, err := f.service.Subscribe(f.user.ID, endpoint, "p256dh-key", "auth-secret", "")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	return sub
}

func TestNotifyPersistsAndDelivers(t *testing.T) {
	f := setupNotificationServiceTest(t)
	f.subscribe(t, "https://push.test/endpoint-1")

	results := f.service.Notify(context.Background(), f.user.ID, NotificationEvent{
		Type:    constants.NotificationTypeOrderConfirmed,
		Title:   "Order Confirmed",
		Body:    "Order FB1 is confirmed.",
		SMSBody: "FlashBites: order FB1 confirmed.",
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 channel results, got %d", len(results))
	}

	byChannel := map[string]ChannelResult{}
	for _, r := range results {
		byChannel[r.Channel] = r
	}
	if byChannel[constants.NotificationChannelPush].Result != constants.ChannelResultDelivered {
		t.Fatalf("expected push delivered, got %+v", byChannel[constants.NotificationChannelPush])
	}
	if byChannel[constants.NotificationChannelSMS].Result != constants.ChannelResultDelivered {
		t.Fatalf("expected sms delivered, got %+v", byChannel[constants.NotificationChannelSMS])
	}
	if len(f.smsStub.sent) != 1 || !strings.Contains(f.smsStub.sent[0], "FB1 confirmed") {
		t.Fatalf("unexpected sms log: %+v", f.smsStub.sent)
	}

	// 通知落库并回写通道结果
	notifications, total, err := f.noteRepo.ListByUser(repository.NotificationListFilter{Page: 1, PageSize: 10, UserID: f.user.ID})
	if err != nil || total != 1 {
		t.Fatalf("list notifications: total=%d err=%v", total, err)
	}
	if notifications[0].Type != constants.NotificationTypeOrderConfirmed || notifications[0].IsRead {
		t.Fatalf("unexpected notification: %+v", notifications[0])
	}
	if notifications[0].ChannelsJSON == nil {
		t.Fatalf("expected channel results to be persisted")
	}
}

func TestNotifyDeactivatesGoneEndpoints(t *testing.T) {
	f := setupNotificationServiceTest(t)
	dead := f.subscribe(t, "https://push.test/dead")
	alive := f.subscribe(t, "https://push.test/alive")
	f.pushStub.failWith[dead.Endpoint] = push.ErrSubscriptionGone

	results := f.service.Notify(context.Background(), f.user.ID, NotificationEvent{
		Type:  constants.NotificationTypeOrderReady,
		Title: "Order Ready",
		Body:  "Order FB2 is ready.",
	})

	byChannel := map[string]ChannelResult{}
	for _, r := range results {
		byChannel[r.Channel] = r
	}
	// 有一个端点成功，通道视为送达
	if byChannel[constants.NotificationChannelPush].Result != constants.ChannelResultDelivered {
		t.Fatalf("expected push delivered, got %+v", byChannel[constants.NotificationChannelPush])
	}

	// 失效端点被停用且不再参与后续投递
	var stored models.PushSubscription
	if err := f.db.First(&stored, dead.ID).Error; err != nil {
		t.Fatalf("load subscription failed: %v", err)
	}
	if stored.Active {
		t.Fatalf("expected dead endpoint to be deactivated")
	}
	active, err := f.subRepo.ListActiveByUser(f.user.ID)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 1 || active[0].Endpoint != alive.Endpoint {
		t.Fatalf("expected only the alive endpoint, got %+v", active)
	}
}

func TestNotifyChannelIsolation(t *testing.T) {
	f := setupNotificationServiceTest(t)
	sub := f.subscribe(t, "https://push.test/flaky")
	f.pushStub.failWith[sub.Endpoint] = errors.New("gateway timeout")
	f.smsStub.err = errors.New("twilio down")

	results := f.service.Notify(context.Background(), f.user.ID, NotificationEvent{
		Type:     constants.NotificationTypeOrderCancelled,
		Title:    "Order Cancelled",
		Body:     "Order FB3 has been cancelled.",
		Priority: constants.NotificationPriorityHigh,
	})
	byChannel := map[string]ChannelResult{}
	for _, r := range results {
		byChannel[r.Channel] = r
	}
	if byChannel[constants.NotificationChannelPush].Result != constants.ChannelResultFailed {
		t.Fatalf("expected push failed, got %+v", byChannel[constants.NotificationChannelPush])
	}
	if byChannel[constants.NotificationChannelSMS].Result != constants.ChannelResultFailed {
		t.Fatalf("expected sms failed, got %+v", byChannel[constants.NotificationChannelSMS])
	}

	// 投递失败不影响通知本身落库
	_, total, err := f.noteRepo.ListByUser(repository.NotificationListFilter{Page: 1, PageSize: 10, UserID: f.user.ID})
	if err != nil || total != 1 {
		t.Fatalf("expected notification persisted, total=%d err=%v", total, err)
	}

	// 暂时性失败不会停用订阅
	active, err := f.subRepo.ListActiveByUser(f.user.ID)
	if err != nil || len(active) != 1 {
		t.Fatalf("expected subscription to stay active, got %+v err=%v", active, err)
	}
}

func TestNotifySuppressedChannels(t *testing.T) {
	f := setupNotificationServiceTest(t)

	// 无订阅、普通优先级且无短信文案
	results := f.service.Notify(context.Background(), f.user.ID, NotificationEvent{
		Type:  constants.NotificationTypeOrderPreparing,
		Title: "Order Being Prepared",
		Body:  "The kitchen is working on order FB4.",
	})
	byChannel := map[string]ChannelResult{}
	for _, r := range results {
		byChannel[r.Channel] = r
	}
	if byChannel[constants.NotificationChannelPush].Result != constants.ChannelResultSuppressed {
		t.Fatalf("expected push suppressed, got %+v", byChannel[constants.NotificationChannelPush])
	}
	if byChannel[constants.NotificationChannelSMS].Result != constants.ChannelResultSuppressed {
		t.Fatalf("expected sms suppressed, got %+v", byChannel[constants.NotificationChannelSMS])
	}
}

func TestSubscribeUpsertAndUnsubscribe(t *testing.T) {
	f := setupNotificationServiceTest(t)

	if _, err := f.service.Subscribe(f.user.ID, "", "key", "auth", ""); !errors.Is(err, ErrSubscriptionInvalid) {
		t.Fatalf("expected ErrSubscriptionInvalid, got %v", err)
	}

	first := f.subscribe(t, "https://push.test/upsert")
	if first.DeviceType != constants.DeviceTypeWeb {
		t.Fatalf("expected default device type web, got %s", first.DeviceType)
	}

	// 同端点重复注册只更新，不重复建行
	second, err := f.service.Subscribe(f.user.ID, "https://push.test/upsert", "rotated-key", "rotated-auth", constants.DeviceTypeAndroid)
	if err != nil {
		t.Fatalf("re-subscribe failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected upsert to reuse row, got %d vs %d", second.ID, first.ID)
	}
	if second.P256dh != "rotated-key" || second.DeviceType != constants.DeviceTypeAndroid {
		t.Fatalf("expected keys refreshed, got %+v", second)
	}

	var count int64
	f.db.Model(&models.PushSubscription{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected single subscription row, got %d", count)
	}

	if err := f.service.Unsubscribe(f.user.ID, "https://push.test/unknown"); !errors.Is(err, ErrSubscriptionInvalid) {
		t.Fatalf("expected ErrSubscriptionInvalid, got %v", err)
	}
	if err := f.service.Unsubscribe(f.user.ID, "https://push.test/upsert"); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
}

func TestMarkReadSemantics(t *testing.T) {
	f := setupNotificationServiceTest(t)
	f.service.Notify(context.Background(), f.user.ID, NotificationEvent{
		Type:  constants.NotificationTypeOrderPlaced,
		Title: "Order Placed",
		Body:  "Order FB5 has been placed.",
	})
	notifications, _, err := f.noteRepo.ListByUser(repository.NotificationListFilter{Page: 1, PageSize: 10, UserID: f.user.ID})
	if err != nil || len(notifications) != 1 {
		t.Fatalf("list notifications failed: %v", err)
	}
	id := notifications[0].ID

	unread, err := f.service.CountUnread(f.user.ID)
	if err != nil || unread != 1 {
		t.Fatalf("expected 1 unread, got %d err=%v", unread, err)
	}

	if err := f.service.MarkRead(id, f.user.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	// 重复标记是幂等的
	if err := f.service.MarkRead(id, f.user.ID); err != nil {
		t.Fatalf("expected idempotent mark read, got %v", err)
	}
	if err := f.service.MarkRead(9999, f.user.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}

	unread, err = f.service.CountUnread(f.user.ID)
	if err != nil || unread != 0 {
		t.Fatalf("expected 0 unread, got %d err=%v", unread, err)
	}
}

func TestOrderStatusEventFanOut(t *testing.T) {
	f := setupNotificationServiceTest(t)

	owner := models.User{Email: "chef@test.local", PasswordHash: "hash", Role: constants.RoleRestaurantOwner}
	if err := f.db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner failed: %v", err)
	}
	restaurant := models.Restaurant{OwnerID: owner.ID, Name: "Wok", Latitude: 31.23, Longitude: 121.47}
	if err := f.db.Create(&restaurant).Error; err != nil {
		t.Fatalf("create restaurant failed: %v", err)
	}
	order := models.Order{
		OrderNo:      "FB-EVENT-1",
		UserID:       f.user.ID,
		RestaurantID: restaurant.ID,
		Status:       constants.OrderStatusConfirmed,
		DeliveryOTP:  "1234",
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := f.service.OrderStatusEvent(context.Background(), order.ID, constants.OrderStatusConfirmed); err != nil {
		t.Fatalf("order status event failed: %v", err)
	}

	// 顾客与店主各收到一条
	_, customerTotal, err := f.noteRepo.ListByUser(repository.NotificationListFilter{Page: 1, PageSize: 10, UserID: f.user.ID})
	if err != nil || customerTotal != 1 {
		t.Fatalf("customer notifications: total=%d err=%v", customerTotal, err)
	}
	ownerNotes, ownerTotal, err := f.noteRepo.ListByUser(repository.NotificationListFilter{Page: 1, PageSize: 10, UserID: owner.ID})
	if err != nil || ownerTotal != 1 {
		t.Fatalf("owner notifications: total=%d err=%v", ownerTotal, err)
	}
	if ownerNotes[0].Priority != constants.NotificationPriorityHigh {
		t.Fatalf("expected high priority owner notice, got %s", ownerNotes[0].Priority)
	}

	// 确认短信携带收货验证码
	if len(f.smsStub.sent) == 0 || !strings.Contains(f.smsStub.sent[0], "1234") {
		t.Fatalf("expected otp in confirmation sms, got %+v", f.smsStub.sent)
	}

	// 未知订单不报错
	if err := f.service.OrderStatusEvent(context.Background(), 9999, constants.OrderStatusConfirmed); err != nil {
		t.Fatalf("expected nil for missing order, got %v", err)
	}
}
