package provider

import (
	"github.com/flashbites/flashbites/internal/cache"
	"github.com/flashbites/flashbites/internal/config"
	"github.com/flashbites/flashbites/internal/logger"
	"github.com/flashbites/flashbites/internal/models"
	"github.com/flashbites/flashbites/internal/push"
	"github.com/flashbites/flashbites/internal/queue"
	"github.com/flashbites/flashbites/internal/repository"
	"github.com/flashbites/flashbites/internal/service"
	"github.com/flashbites/flashbites/internal/sms"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo             repository.UserRepository
	RestaurantRepo       repository.RestaurantRepository
	AddressRepo          repository.AddressRepository
	OrderRepo            *repository.GormOrderRepository
	ClaimRepo            *repository.GormClaimRepository
	NotificationRepo     repository.NotificationRepository
	PushSubscriptionRepo repository.PushSubscriptionRepository

	// Channels
	PushSender push.Sender
	SMSSender  sms.Sender

	// Services
	OrderService        *service.OrderService
	DispatchService     *service.DispatchService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化投递通道
	if sender := push.NewWebPushSender(&cfg.Push); sender != nil {
		c.PushSender = sender
	}
	c.SMSSender = sms.NewSender(&cfg.SMS)

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.RestaurantRepo = repository.NewRestaurantRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ClaimRepo = repository.NewClaimRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.PushSubscriptionRepo = repository.NewPushSubscriptionRepository(db)
}

func (c *Container) initServices() {
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ClaimRepo,
		c.RestaurantRepo,
		c.QueueClient,
		c.Config.Order,
		c.Config.Security.OTPRateLimit,
	)
	c.DispatchService = service.NewDispatchService(
		models.DB,
		c.OrderRepo,
		c.ClaimRepo,
		c.RestaurantRepo,
		c.UserRepo,
		c.QueueClient,
		c.Config.Dispatch,
	)
	c.NotificationService = service.NewNotificationService(
		c.NotificationRepo,
		c.PushSubscriptionRepo,
		c.UserRepo,
		c.RestaurantRepo,
		c.OrderRepo,
		c.PushSender,
		c.SMSSender,
	)
}
