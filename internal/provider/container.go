package provider

import (
	"github.com/meili-next/internal/cache"
	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/queue"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	DealerRepo     repository.DealerRepository
	OrderRepo      repository.OrderRepository
	TierRepo       repository.TierRepository
	TurnoverRepo   repository.TurnoverRepository
	BonusRepo      repository.BonusRepository
	PeriodRepo     repository.PeriodRepository
	LedgerRepo     repository.LedgerRepository
	WithdrawalRepo repository.WithdrawalRepository

	// Services
	AuthService       *service.AuthService
	DealerService     *service.DealerService
	OrderService      *service.OrderService
	TierService       *service.TierService
	TurnoverService   *service.TurnoverService
	CommissionService *service.CommissionService
	AuditService      *service.AuditService
	PeriodService     *service.PeriodService
	LedgerService     *service.LedgerService
	WithdrawalService *service.WithdrawalService
	RiskScorer        *service.RiskScorer
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

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.DealerRepo = repository.NewDealerRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.TierRepo = repository.NewTierRepository(db)
	c.TurnoverRepo = repository.NewTurnoverRepository(db)
	c.BonusRepo = repository.NewBonusRepository(db)
	c.PeriodRepo = repository.NewPeriodRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.DealerService = service.NewDealerService(c.DealerRepo, c.TurnoverRepo)
	c.OrderService = service.NewOrderService(c.DealerRepo, c.OrderRepo)
	c.TierService = service.NewTierService(c.TierRepo)
	if err := c.TierService.Reload(); err != nil {
		// 档位配置属致命错误，只告警不吞掉，首个依赖解析的请求会再次失败暴露
		logger.Errorw("provider_tier_reload_failed", "error", err)
	}
	c.TurnoverService = service.NewTurnoverService(c.DealerRepo, c.OrderRepo, c.TurnoverRepo, c.PeriodRepo, c.TierService)
	c.LedgerService = service.NewLedgerService(c.LedgerRepo)
	c.CommissionService = service.NewCommissionService(c.Config, c.DealerRepo, c.OrderRepo, c.TurnoverService, c.TierService, c.LedgerService, c.LedgerRepo)
	c.AuditService = service.NewAuditService(c.TurnoverRepo, c.TurnoverService)
	c.PeriodService = service.NewPeriodService(c.PeriodRepo, c.TurnoverRepo, c.BonusRepo, c.OrderRepo, c.TurnoverService, c.CommissionService, c.AuditService, c.LedgerService)
	c.RiskScorer = service.NewRiskScorer(c.Config)
	c.WithdrawalService = service.NewWithdrawalService(c.Config, c.DealerRepo, c.LedgerRepo, c.WithdrawalRepo, c.RiskScorer)
}
