package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Dealer{},
		&models.Order{},
		&models.BonusTier{},
		&models.TurnoverRecord{},
		&models.BonusTransaction{},
		&models.SettlementPeriod{},
		&models.LedgerAccount{},
		&models.IncomeTransaction{},
		&models.WithdrawalRequest{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func uintPtr(v uint) *uint {
	return &v
}

// pastMonth 上一个自然月（封账只允许历史月份）
func pastMonth() string {
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	return firstOfMonth.AddDate(0, 0, -1).Format(constants.MonthLayout)
}

func monthMid(t *testing.T, month string) time.Time {
	t.Helper()
	parsed, err := time.Parse(constants.MonthLayout, month)
	if err != nil {
		t.Fatalf("parse month failed: %v", err)
	}
	return parsed.AddDate(0, 0, 14)
}

func createTestDealer(t *testing.T, db *gorm.DB, id uint, parentID *uint) {
	t.Helper()
	now := time.Now()
	dealer := models.Dealer{
		ID:        id,
		ParentID:  parentID,
		Name:      fmt.Sprintf("经销商%d", id),
		Email:     fmt.Sprintf("dealer_%d@example.com", id),
		Status:    constants.DealerStatusActive,
		JoinedAt:  now.AddDate(0, -6, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&dealer).Error; err != nil {
		t.Fatalf("create dealer failed: %v", err)
	}
}

func createTestOrder(t *testing.T, db *gorm.DB, dealerID uint, orderNo, month string, amount float64) {
	t.Helper()
	order := models.Order{
		OrderNo:   orderNo,
		DealerID:  dealerID,
		Amount:    models.NewMoneyFromFloat(amount),
		Month:     month,
		PaidAt:    monthMid(t, month),
		CreatedAt: time.Now(),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

// seedStandardTiers 三档标准档位：20% / 35% / 50%，分厘相接
func seedStandardTiers(t *testing.T, db *gorm.DB) {
	t.Helper()
	maxBronze := models.NewMoneyFromFloat(30000)
	maxSilver := models.NewMoneyFromFloat(100000)
	tiers := []models.BonusTier{
		{Name: "铜牌", MinAmount: models.ZeroMoney(), MaxAmount: &maxBronze, BonusPercent: models.NewMoneyFromFloat(20), SortOrder: 1},
		{Name: "银牌", MinAmount: models.NewMoneyFromFloat(30000.01), MaxAmount: &maxSilver, BonusPercent: models.NewMoneyFromFloat(35), SortOrder: 2},
		{Name: "金牌", MinAmount: models.NewMoneyFromFloat(100000.01), BonusPercent: models.NewMoneyFromFloat(50), SortOrder: 3},
	}
	if err := db.Create(&tiers).Error; err != nil {
		t.Fatalf("seed tiers failed: %v", err)
	}
}

func newTestTierService(t *testing.T, db *gorm.DB) *TierService {
	t.Helper()
	svc := NewTierService(repository.NewTierRepository(db))
	if err := svc.Reload(); err != nil {
		t.Fatalf("tier reload failed: %v", err)
	}
	return svc
}

func newTestTurnoverService(t *testing.T, db *gorm.DB) *TurnoverService {
	t.Helper()
	return NewTurnoverService(
		repository.NewDealerRepository(db),
		repository.NewOrderRepository(db),
		repository.NewTurnoverRepository(db),
		repository.NewPeriodRepository(db),
		newTestTierService(t, db),
	)
}

// seedThreeLevelChain A(1) ← B(2) ← C(3)，上月订单金额使三人分别落入 50%/35%/20% 档
func seedThreeLevelChain(t *testing.T, db *gorm.DB, month string) {
	t.Helper()
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, uintPtr(1))
	createTestDealer(t, db, 3, uintPtr(2))
	createTestOrder(t, db, 3, "ORD-C-1", month, 1000)
	createTestOrder(t, db, 2, "ORD-B-1", month, 40000)
	createTestOrder(t, db, 1, "ORD-A-1", month, 101000)
}

func TestTurnoverServiceComputeMonthAggregation(t *testing.T) {
	db := openServiceTestDB(t, "turnover_compute_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)

	svc := newTestTurnoverService(t, db)
	records, err := svc.ComputeMonth(month)
	if err != nil {
		t.Fatalf("compute month failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("unexpected record count: %d", len(records))
	}

	byDealer := make(map[uint]models.TurnoverRecord, len(records))
	for _, record := range records {
		byDealer[record.DealerID] = record
	}

	c := byDealer[3]
	if !c.PersonalTurnover.Decimal.Equal(decimal.NewFromInt(1000)) || !c.TeamTurnover.Decimal.IsZero() {
		t.Fatalf("unexpected leaf turnover: %+v", c)
	}
	if c.TierName != "铜牌" || !c.BonusPercent.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected leaf tier: %+v", c)
	}

	b := byDealer[2]
	if !b.TeamTurnover.Decimal.Equal(decimal.NewFromInt(1000)) || !b.TotalTurnover.Decimal.Equal(decimal.NewFromInt(41000)) {
		t.Fatalf("unexpected mid turnover: %+v", b)
	}
	if b.TierName != "银牌" {
		t.Fatalf("unexpected mid tier: %s", b.TierName)
	}

	a := byDealer[1]
	if !a.PersonalTurnover.Decimal.Equal(decimal.NewFromInt(101000)) ||
		!a.TeamTurnover.Decimal.Equal(decimal.NewFromInt(41000)) ||
		!a.TotalTurnover.Decimal.Equal(decimal.NewFromInt(142000)) {
		t.Fatalf("unexpected root turnover: %+v", a)
	}
	if a.TierName != "金牌" || !a.BonusPercent.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected root tier: %+v", a)
	}
}

func TestTurnoverServiceSkipsDealersWithoutTurnover(t *testing.T) {
	db := openServiceTestDB(t, "turnover_skip_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, uintPtr(1))
	createTestOrder(t, db, 1, "ORD-ROOT", month, 500)

	svc := newTestTurnoverService(t, db)
	records, err := svc.ComputeMonth(month)
	if err != nil {
		t.Fatalf("compute month failed: %v", err)
	}
	if len(records) != 1 || records[0].DealerID != 1 {
		t.Fatalf("zero-turnover dealers must be skipped: %+v", records)
	}
}

func TestTurnoverServiceRecomputeIdempotent(t *testing.T) {
	db := openServiceTestDB(t, "turnover_recompute_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)

	svc := newTestTurnoverService(t, db)
	first, err := svc.RecomputeMonth(month)
	if err != nil {
		t.Fatalf("first recompute failed: %v", err)
	}
	second, err := svc.RecomputeMonth(month)
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("recompute not idempotent: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].DealerID != second[i].DealerID ||
			!first[i].TotalTurnover.Decimal.Equal(second[i].TotalTurnover.Decimal) ||
			first[i].TierID != second[i].TierID {
			t.Fatalf("recompute output drifted at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	var count int64
	if err := db.Model(&models.TurnoverRecord{}).Where("month = ?", month).Count(&count).Error; err != nil {
		t.Fatalf("count records failed: %v", err)
	}
	if count != int64(len(first)) {
		t.Fatalf("stored records duplicated: %d", count)
	}
}

func TestTurnoverServiceRecomputeRejectsFinalizedMonth(t *testing.T) {
	db := openServiceTestDB(t, "turnover_finalized_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)

	period := models.SettlementPeriod{Month: month, Status: constants.PeriodStatusFinalized}
	if err := db.Create(&period).Error; err != nil {
		t.Fatalf("create period failed: %v", err)
	}

	svc := newTestTurnoverService(t, db)
	if _, err := svc.RecomputeMonth(month); !errors.Is(err, ErrPeriodFinalized) {
		t.Fatalf("expected finalized rejection, got: %v", err)
	}
}
