package main

import (
	"time"

	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/constants"
	"github.com/flashbites/flashbites/internal/logger"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/provider"
	"github.com/flashbites/flashbites/internal/service"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 演示数据：一个顾客、一个餐厅老板、一个配送员，外加两笔示例订单。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	users := []models.User{
		{
			Email:       "customer@flashbites.dev",
			Phone:       "+8613800000001",
			DisplayName: "Demo Customer",
			Role:        constants.RoleCustomer,
		},
		{
			Email:       "owner@flashbites.dev",
			Phone:       "+8613800000002",
			DisplayName: "Demo Owner",
			Role:        constants.RoleRestaurantOwner,
		},
		{
			Email:       "partner@flashbites.dev",
			Phone:       "+8613800000003",
			DisplayName: "Demo Partner",
			Role:        constants.RoleDeliveryPartner,
		},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("flashbites123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}
	byEmail := map[string]*models.User{}
	for i := range users {
		user := &users[i]
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", user.Email)
			byEmail[existing.Email] = &existing
			byEmail[user.Email] = &existing
			continue
		}
		user.PasswordHash = string(hash)
		if err := models.DB.Create(user).Error; err != nil {
			stdLog.Fatalf("Failed to create user %s: %v", user.Email, err)
		}
		stdLog.Printf("Created user: %s (%s)", user.Email, user.Role)
		byEmail[user.Email] = user
	}
	customer := byEmail["customer@flashbites.dev"]
	owner := byEmail["owner@flashbites.dev"]
	partner := byEmail["partner@flashbites.dev"]

	restaurant := models.Restaurant{
		OwnerID:     owner.ID,
		Name:        "Golden Wok",
		Phone:       "+8602112345678",
		AddressLine: "88 Nanjing Road, Shanghai",
		Latitude:    31.2304,
		Longitude:   121.4737,
		IsOpen:      true,
	}
	var existingRestaurant models.Restaurant
	if err := models.DB.Where("owner_id = ?", owner.ID).First(&existingRestaurant).Error; err == nil {
		restaurant = existingRestaurant
		stdLog.Printf("Restaurant already exists: %s", restaurant.Name)
	} else {
		if err := models.DB.Create(&restaurant).Error; err != nil {
			stdLog.Fatalf("Failed to create restaurant: %v", err)
		}
		stdLog.Printf("Created restaurant: %s", restaurant.Name)
	}

	address := models.Address{
		UserID:    customer.ID,
		Label:     "home",
		Line:      "200 Century Avenue, Shanghai",
		Latitude:  31.2231,
		Longitude: 121.5397,
	}
	var existingAddress models.Address
	if err := models.DB.Where("user_id = ?", customer.ID).First(&existingAddress).Error; err == nil {
		address = existingAddress
		stdLog.Printf("Address already exists for customer")
	} else {
		if err := models.DB.Create(&address).Error; err != nil {
			stdLog.Fatalf("Failed to create address: %v", err)
		}
		stdLog.Printf("Created address for customer")
	}

	container := provider.NewContainer(cfg)

	var orderCount int64
	models.DB.Model(&models.Order{}).Count(&orderCount)
	if orderCount == 0 {
		for _, items := range [][]models.OrderItem{
			{
				{Name: "Kung Pao Chicken", Quantity: 1, UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50))},
				{Name: "Steamed Rice", Quantity: 2, UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(2.00))},
			},
			{
				{Name: "Mapo Tofu", Quantity: 1, UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(9.90))},
			},
		} {
			order, err := container.OrderService.PlaceOrder(service.PlaceOrderInput{
				UserID:        customer.ID,
				RestaurantID:  restaurant.ID,
				AddressID:     address.ID,
				Items:         items,
				DeliveryFee:   models.NewMoneyFromDecimal(decimal.NewFromFloat(3.00)),
				PaymentMethod: constants.PaymentMethodCOD,
			})
			if err != nil {
				stdLog.Fatalf("Failed to place order: %v", err)
			}
			stdLog.Printf("Created order: %s", order.OrderNo)
		}
	} else {
		stdLog.Printf("Orders already exist, skipped")
	}

	// 演示令牌，便于本地调用 API
	ttl := time.Duration(cfg.JWT.ExpireHours) * time.Hour
	for _, user := range []*models.User{customer, owner, partner} {
		token, err := service.SignUserToken(cfg.JWT.SecretKey, user.ID, user.Email, user.Role, ttl)
		if err != nil {
			stdLog.Printf("Failed to sign token for %s: %v", user.Email, err)
			continue
		}
		stdLog.Printf("Token (%s): %s", user.Role, token)
	}
}
