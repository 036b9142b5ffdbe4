package router

import (
	"fmt"
	"strings"

	"github.com/meili-next/internal/cache"
	"github.com/meili-next/internal/config"
	adminhandlers "github.com/meili-next/internal/http/handlers/admin"
	publichandlers "github.com/meili-next/internal/http/handlers/public"
	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按经销商/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ml"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxRequests,
		Message:       "too many requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 经销商自助接口（需经销商 JWT）
		dealer := apiV1.Group("/me")
		dealer.Use(DealerJWTAuthMiddleware(cfg.DealerJWT.SecretKey, c.DealerRepo))
		{
			dealer.GET("", publicHandler.GetMyProfile)
			dealer.GET("/turnover", publicHandler.GetMyTurnover)
			dealer.GET("/turnover/history", publicHandler.GetMyTurnoverHistory)
			dealer.GET("/team", publicHandler.GetMyTeam)
			dealer.GET("/bonuses", publicHandler.GetMyBonuses)
			dealer.GET("/ledger", publicHandler.GetMyLedger)
			dealer.GET("/ledger/transactions", publicHandler.GetMyLedgerTransactions)
			dealer.GET("/withdrawals", publicHandler.GetMyWithdrawals)
			dealer.GET("/withdrawals/:id", publicHandler.GetMyWithdrawal)
			dealer.POST("/withdrawals",
				RateLimitMiddleware(redisClient, writeRule, KeyByIP),
				publicHandler.CreateMyWithdrawal)
			dealer.POST("/withdrawals/:id/cancel", publicHandler.CancelMyWithdrawal)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(AdminJWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/me", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 经销商管理
				authorized.GET("/dealers", adminHandler.GetAdminDealers)
				authorized.POST("/dealers", adminHandler.CreateDealer)
				authorized.GET("/dealers/:id", adminHandler.GetAdminDealer)
				authorized.PATCH("/dealers/:id/status", adminHandler.UpdateDealerStatus)
				authorized.GET("/dealers/:id/team", adminHandler.GetAdminDealerTeam)
				authorized.GET("/dealers/:id/ledger", adminHandler.GetAdminDealerLedger)
				authorized.GET("/dealers/:id/ledger/transactions", adminHandler.GetAdminDealerLedgerTransactions)

				// 订单与订阅扣款接入
				authorized.GET("/orders", adminHandler.GetAdminOrders)
				authorized.POST("/orders", adminHandler.IngestOrder)
				authorized.POST("/subscriptions", adminHandler.IngestSubscription)

				// 档位配置
				authorized.GET("/tiers", adminHandler.GetAdminTiers)
				authorized.PUT("/tiers", adminHandler.ReplaceTiers)

				// 结算周期
				authorized.GET("/periods", adminHandler.GetAdminPeriods)
				authorized.GET("/periods/:month", adminHandler.GetAdminPeriodStatus)
				authorized.GET("/periods/:month/preview", adminHandler.PreviewPeriod)
				authorized.GET("/periods/:month/audit", adminHandler.AuditPeriod)
				authorized.POST("/periods/:month/recompute", adminHandler.RecomputePeriodTurnover)
				authorized.POST("/periods/:month/finalize", adminHandler.FinalizePeriod)
				authorized.POST("/periods/:month/pay", adminHandler.PayPeriod)
				authorized.GET("/bonuses", adminHandler.GetAdminBonuses)

				// 提现管理
				authorized.GET("/withdrawals", adminHandler.GetAdminWithdrawals)
				authorized.GET("/withdrawals/:id", adminHandler.GetAdminWithdrawal)
				authorized.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
				authorized.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
				authorized.POST("/withdrawals/:id/processing", adminHandler.MarkWithdrawalProcessing)
				authorized.POST("/withdrawals/:id/complete", adminHandler.CompleteWithdrawal)
				authorized.POST("/withdrawals/:id/cancel", adminHandler.CancelWithdrawal)

				// 账本守恒校验
				authorized.GET("/ledger/conservation", adminHandler.VerifyLedgerConservation)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
