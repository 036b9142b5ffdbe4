package service

import (
	"errors"
	"testing"

	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
)

func tier(name string, min float64, max *float64, percent float64) models.BonusTier {
	t := models.BonusTier{
		Name:         name,
		MinAmount:    models.NewMoneyFromFloat(min),
		BonusPercent: models.NewMoneyFromFloat(percent),
	}
	if max != nil {
		m := models.NewMoneyFromFloat(*max)
		t.MaxAmount = &m
	}
	return t
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestValidateTiersAcceptsContiguousTable(t *testing.T) {
	tiers := []models.BonusTier{
		tier("铜牌", 0, floatPtr(30000), 20),
		tier("银牌", 30000.01, floatPtr(100000), 35),
		tier("金牌", 100000.01, nil, 50),
	}
	if err := ValidateTiers(tiers); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
}

func TestValidateTiersRejectsInvalidTables(t *testing.T) {
	cases := []struct {
		name  string
		tiers []models.BonusTier
	}{
		{"empty", nil},
		{"first_min_not_zero", []models.BonusTier{
			tier("铜牌", 100, nil, 20),
		}},
		{"gap_between_tiers", []models.BonusTier{
			tier("铜牌", 0, floatPtr(30000), 20),
			tier("银牌", 30001, nil, 35),
		}},
		{"overlap_between_tiers", []models.BonusTier{
			tier("铜牌", 0, floatPtr(30000), 20),
			tier("银牌", 30000, nil, 35),
		}},
		{"middle_tier_unbounded", []models.BonusTier{
			tier("铜牌", 0, nil, 20),
			tier("银牌", 30000.01, nil, 35),
		}},
		{"top_tier_bounded", []models.BonusTier{
			tier("铜牌", 0, floatPtr(30000), 20),
			tier("银牌", 30000.01, floatPtr(100000), 35),
		}},
		{"percent_not_increasing", []models.BonusTier{
			tier("铜牌", 0, floatPtr(30000), 20),
			tier("银牌", 30000.01, nil, 20),
		}},
		{"negative_percent", []models.BonusTier{
			tier("铜牌", 0, nil, -5),
		}},
		{"max_below_min", []models.BonusTier{
			tier("铜牌", 0, floatPtr(30000), 20),
			tier("银牌", 30000.01, floatPtr(20000), 35),
			tier("金牌", 20000.01, nil, 50),
		}},
	}
	for _, tc := range cases {
		if err := ValidateTiers(tc.tiers); !errors.Is(err, ErrTierConfigInvalid) {
			t.Fatalf("case %s: expected invalid config, got: %v", tc.name, err)
		}
	}
}

func TestTierServiceResolveBoundaries(t *testing.T) {
	db := openServiceTestDB(t, "tier_resolve_test")
	seedStandardTiers(t, db)
	svc := newTestTierService(t, db)

	cases := []struct {
		total    float64
		wantTier string
	}{
		{0, "铜牌"},
		{30000, "铜牌"},
		{30000.01, "银牌"},
		{100000, "银牌"},
		{100000.01, "金牌"},
		{9999999, "金牌"},
		{-100, "铜牌"}, // 负数按 0 处理
	}
	for _, tc := range cases {
		resolved, err := svc.Resolve(decimal.NewFromFloat(tc.total))
		if err != nil {
			t.Fatalf("resolve %.2f failed: %v", tc.total, err)
		}
		if resolved.Name != tc.wantTier {
			t.Fatalf("resolve %.2f: expected %s, got %s", tc.total, tc.wantTier, resolved.Name)
		}
	}

	top, err := svc.TopPercent()
	if err != nil {
		t.Fatalf("top percent failed: %v", err)
	}
	if !top.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected top percent: %s", top.String())
	}
}

func TestTierServiceResolveWithoutConfig(t *testing.T) {
	db := openServiceTestDB(t, "tier_empty_test")
	svc := NewTierService(repository.NewTierRepository(db))
	if _, err := svc.Resolve(decimal.NewFromInt(100)); !errors.Is(err, ErrTierConfigInvalid) {
		t.Fatalf("expected invalid config without tiers, got: %v", err)
	}
}

func TestTierServiceReplaceTiersRejectsInvalidAndKeepsOld(t *testing.T) {
	db := openServiceTestDB(t, "tier_replace_test")
	seedStandardTiers(t, db)
	svc := newTestTierService(t, db)

	invalid := []models.BonusTier{
		tier("铜牌", 0, floatPtr(30000), 20),
		tier("银牌", 40000, nil, 35),
	}
	if err := svc.ReplaceTiers(invalid); !errors.Is(err, ErrTierConfigInvalid) {
		t.Fatalf("expected invalid config, got: %v", err)
	}

	// 替换失败不影响旧表继续解析
	resolved, err := svc.Resolve(decimal.NewFromInt(50000))
	if err != nil {
		t.Fatalf("resolve after failed replace: %v", err)
	}
	if resolved.Name != "银牌" {
		t.Fatalf("old table must survive failed replace, got: %s", resolved.Name)
	}

	valid := []models.BonusTier{
		tier("入门", 0, floatPtr(50000), 10),
		tier("精英", 50000.01, nil, 30),
	}
	if err := svc.ReplaceTiers(valid); err != nil {
		t.Fatalf("replace tiers failed: %v", err)
	}
	resolved, err = svc.Resolve(decimal.NewFromInt(60000))
	if err != nil {
		t.Fatalf("resolve after replace failed: %v", err)
	}
	if resolved.Name != "精英" {
		t.Fatalf("new table not in effect, got: %s", resolved.Name)
	}
	if tiers := svc.ListTiers(); len(tiers) != 2 {
		t.Fatalf("unexpected tier snapshot: %+v", tiers)
	}
}
