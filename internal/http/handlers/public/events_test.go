package public

import (
	"testing"

	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/events"
)

func TestEventVisibleToDeliveryPartner(t *testing.T) {
	const partnerID, rivalID = uint(7), uint(8)

	// 转入 ready：尚无接单方，所有配送员可见
	readyEvent := events.OrderEvent{
		OrderID:      1,
		UserID:       3,
		RestaurantID: 5,
		NewStatus:    constants.OrderStatusReady,
	}
	if !eventVisibleTo(readyEvent, partnerID, constants.RoleDeliveryPartner, 0) {
		t.Fatalf("partner should see order becoming ready")
	}

	// 接单事件：状态仍为 ready，携带接单方 ID，竞争方据此移除列表项
	claimEvent := readyEvent
	claimEvent.PartnerID = partnerID
	if !eventVisibleTo(claimEvent, rivalID, constants.RoleDeliveryPartner, 0) {
		t.Fatalf("rival partner should see the order being claimed")
	}
	if !eventVisibleTo(claimEvent, partnerID, constants.RoleDeliveryPartner, 0) {
		t.Fatalf("claiming partner should see own claim event")
	}

	// 非 ready 状态只有承运配送员可见
	pickedUp := events.OrderEvent{
		OrderID:   1,
		UserID:    3,
		PartnerID: partnerID,
		NewStatus: constants.OrderStatusOutForDelivery,
	}
	if eventVisibleTo(pickedUp, rivalID, constants.RoleDeliveryPartner, 0) {
		t.Fatalf("rival partner should not see another partner's delivery")
	}
	if !eventVisibleTo(pickedUp, partnerID, constants.RoleDeliveryPartner, 0) {
		t.Fatalf("assigned partner should see own delivery event")
	}
}

func TestEventVisibleToByRole(t *testing.T) {
	event := events.OrderEvent{
		OrderID:      1,
		UserID:       3,
		RestaurantID: 5,
		PartnerID:    7,
		NewStatus:    constants.OrderStatusConfirmed,
	}

	if !eventVisibleTo(event, 99, constants.RoleAdmin, 0) {
		t.Fatalf("admin should see all events")
	}
	if !eventVisibleTo(event, 2, constants.RoleRestaurantOwner, 5) {
		t.Fatalf("owner should see own restaurant's events")
	}
	if eventVisibleTo(event, 2, constants.RoleRestaurantOwner, 6) {
		t.Fatalf("owner should not see other restaurants' events")
	}
	if eventVisibleTo(event, 2, constants.RoleRestaurantOwner, 0) {
		t.Fatalf("owner without a restaurant should see nothing")
	}
	if !eventVisibleTo(event, 3, constants.RoleCustomer, 0) {
		t.Fatalf("customer should see own order's events")
	}
	if eventVisibleTo(event, 4, constants.RoleCustomer, 0) {
		t.Fatalf("customer should not see others' orders")
	}
}
