package main

import (
	"fmt"
	"time"

	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
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

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认档位表：区间按分连续，最高档无上限
	maxBronze := models.NewMoneyFromFloat(30000)
	maxSilver := models.NewMoneyFromFloat(100000)
	tiers := []models.BonusTier{
		{Name: "铜牌", MinAmount: models.NewMoneyFromFloat(0), MaxAmount: &maxBronze, BonusPercent: models.NewMoneyFromFloat(20), SortOrder: 0},
		{Name: "银牌", MinAmount: models.NewMoneyFromFloat(30000.01), MaxAmount: &maxSilver, BonusPercent: models.NewMoneyFromFloat(35), SortOrder: 1},
		{Name: "金牌", MinAmount: models.NewMoneyFromFloat(100000.01), BonusPercent: models.NewMoneyFromFloat(50), SortOrder: 2},
	}
	for _, tier := range tiers {
		var existing models.BonusTier
		if err := models.DB.Where("name = ?", tier.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tier).Error; err != nil {
				stdLog.Printf("Failed to create tier %s: %v", tier.Name, err)
			} else {
				stdLog.Printf("Created tier: %s", tier.Name)
			}
		} else {
			stdLog.Printf("Tier already exists: %s", tier.Name)
		}
	}

	// 演示经销商树：anna (根) → bella → carol，外加 anna 的另一条直推线
	now := time.Now()
	seedDealers := []struct {
		Name       string
		Email      string
		ParentName string
	}{
		{Name: "Anna", Email: "anna@example.com"},
		{Name: "Bella", Email: "bella@example.com", ParentName: "Anna"},
		{Name: "Carol", Email: "carol@example.com", ParentName: "Bella"},
		{Name: "Daisy", Email: "daisy@example.com", ParentName: "Anna"},
		{Name: "Emma", Email: "emma@example.com", ParentName: "Daisy"},
	}
	dealerIDs := map[string]uint{}
	for _, seed := range seedDealers {
		var existing models.Dealer
		if err := models.DB.Where("email = ?", seed.Email).First(&existing).Error; err == nil {
			dealerIDs[seed.Name] = existing.ID
			stdLog.Printf("Dealer already exists: %s", seed.Email)
			continue
		}
		dealer := models.Dealer{
			Name:     seed.Name,
			Email:    seed.Email,
			Status:   constants.DealerStatusActive,
			JoinedAt: now.AddDate(0, -6, 0),
		}
		if seed.ParentName != "" {
			parentID := dealerIDs[seed.ParentName]
			if parentID == 0 {
				stdLog.Printf("Skip dealer %s: parent %s missing", seed.Name, seed.ParentName)
				continue
			}
			dealer.ParentID = &parentID
		}
		if err := models.DB.Create(&dealer).Error; err != nil {
			stdLog.Printf("Failed to create dealer %s: %v", seed.Email, err)
			continue
		}
		dealerIDs[seed.Name] = dealer.ID
		stdLog.Printf("Created dealer: %s", seed.Email)
	}

	// 上个月的演示订单（可直接预览/封账）
	lastMonth := now.AddDate(0, -1, 0)
	paidAt := time.Date(lastMonth.Year(), lastMonth.Month(), 15, 10, 0, 0, 0, time.Local)
	month := paidAt.Format(constants.MonthLayout)
	seedOrders := []struct {
		OrderNo    string
		DealerName string
		Amount     float64
	}{
		{OrderNo: "SEED-" + month + "-001", DealerName: "Carol", Amount: 1000},
		{OrderNo: "SEED-" + month + "-002", DealerName: "Carol", Amount: 4500},
		{OrderNo: "SEED-" + month + "-003", DealerName: "Bella", Amount: 28000},
		{OrderNo: "SEED-" + month + "-004", DealerName: "Daisy", Amount: 36000},
		{OrderNo: "SEED-" + month + "-005", DealerName: "Emma", Amount: 9000},
		{OrderNo: "SEED-" + month + "-006", DealerName: "Anna", Amount: 52000},
	}
	for _, seed := range seedOrders {
		dealerID := dealerIDs[seed.DealerName]
		if dealerID == 0 {
			stdLog.Printf("Skip order %s: dealer %s missing", seed.OrderNo, seed.DealerName)
			continue
		}
		var existing models.Order
		if err := models.DB.Where("order_no = ?", seed.OrderNo).First(&existing).Error; err == nil {
			stdLog.Printf("Order already exists: %s", seed.OrderNo)
			continue
		}
		order := models.Order{
			OrderNo:  seed.OrderNo,
			DealerID: dealerID,
			Amount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(seed.Amount)),
			Month:    month,
			PaidAt:   paidAt,
		}
		if err := models.DB.Create(&order).Error; err != nil {
			stdLog.Printf("Failed to create order %s: %v", seed.OrderNo, err)
		} else {
			stdLog.Printf("Created order: %s", seed.OrderNo)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Bonus tiers (铜牌 20% / 银牌 35% / 金牌 50%)")
	fmt.Println("- 5 Dealers (Anna → Bella → Carol, Anna → Daisy → Emma)")
	fmt.Printf("- 6 Orders for %s\n", month)
}
