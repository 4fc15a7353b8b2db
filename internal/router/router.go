package router

import (
	"fmt"
	"strings"

	"github.com/flashbites/flashbites/internal/cache"
	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/constants"
	partnerhandlers "github.com/flashbites/flashbites/internal/http/handlers/partner"
	publichandlers "github.com/flashbites/flashbites/internal/http/handlers/public"
	"github.com/flashbites/flashbites/internal/logger"
	"github.com/flashbites/flashbites/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/配送侧分组）
	publicHandler := publichandlers.New(c)
	partnerHandler := partnerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fb"
	}
	redisClient := cache.Client()
	otpRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:otp", redisPrefix),
		WindowSeconds: cfg.Security.OTPRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OTPRateLimit.MaxAttempts,
		MessageKey:    "error.otp_rate_limited",
	}
	if !cfg.Security.OTPRateLimit.Enabled {
		// 规则置空即短路，保持核销路径无额外依赖
		otpRule = RateLimitRule{}
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 用户接口（顾客 / 餐厅老板，需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.PATCH("/orders/:id/status", publicHandler.UpdateOrderStatus)
			user.POST("/orders/:id/verify-delivery",
				RateLimitMiddleware(redisClient, otpRule, KeyByIPAndParam("id")),
				publicHandler.VerifyDelivery)

			user.GET("/me/notifications", publicHandler.ListMyNotifications)
			user.POST("/me/notifications/:id/read", publicHandler.MarkNotificationRead)
			user.POST("/me/notifications/read-all", publicHandler.MarkAllNotificationsRead)
			user.POST("/me/push-subscriptions", publicHandler.SubscribePush)
			user.DELETE("/me/push-subscriptions", publicHandler.UnsubscribePush)

			user.GET("/events/orders", publicHandler.StreamOrderEvents)
		}

		// 配送员接口
		partner := apiV1.Group("/partner")
		partner.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		partner.Use(RequireRoles(constants.RoleDeliveryPartner))
		{
			partner.GET("/orders/available", partnerHandler.ListAvailableOrders)
			partner.POST("/orders/:id/claim", partnerHandler.ClaimOrder)
			partner.GET("/orders/assigned", partnerHandler.ListAssignedOrders)
			partner.GET("/orders/history", partnerHandler.ListOrderHistory)
			partner.GET("/stats", partnerHandler.GetStats)
			partner.POST("/orders/:id/deliver",
				RateLimitMiddleware(redisClient, otpRule, KeyByIPAndParam("id")),
				partnerHandler.DeliverOrder)
			partner.PUT("/location", partnerHandler.UpdateLocation)
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
