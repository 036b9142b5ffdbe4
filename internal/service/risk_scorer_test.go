package service

import (
	"testing"

	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/constants"

	"github.com/shopspring/decimal"
)

func newTestRiskScorer() *RiskScorer {
	return NewRiskScorer(&config.Config{
		Risk: config.RiskConfig{
			NewAccountDays:           30,
			LargeAmount:              100000,
			Frequent24hCount:         2,
			FrequentWeekCount:        5,
			LowIncomeTxnCount:        3,
			HighWithdrawRatio:        0.8,
			WeightNewAccount:         15,
			WeightFirstWithdrawal:    10,
			WeightLargeWithdrawal:    20,
			WeightFrequent24h:        15,
			WeightFrequentWeek:       10,
			WeightSingleIncomeSource: 10,
			WeightLowIncomeActivity:  10,
			WeightWithdrawPercent:    20,
			MediumThreshold:          40,
			HighThreshold:            70,
		},
	})
}

func TestRiskScorerVeteranLowBand(t *testing.T) {
	scorer := newTestRiskScorer()
	result := scorer.Score(RiskInput{
		AccountAgeDays:   400,
		TotalWithdrawals: 5,
		IncomeTypeCount:  3,
		IncomeTxnCount:   20,
		Amount:           decimal.NewFromInt(1000),
		TotalEarned:      decimal.NewFromInt(100000),
	})
	if result.Score != 0 {
		t.Fatalf("unexpected score: %d (%v)", result.Score, result.Flags)
	}
	if result.Band != constants.RiskBandLow {
		t.Fatalf("unexpected band: %s", result.Band)
	}
	if len(result.Flags) != 0 {
		t.Fatalf("unexpected flags: %v", result.Flags)
	}
}

func TestRiskScorerNewAccountFullWithdraw(t *testing.T) {
	scorer := newTestRiskScorer()
	result := scorer.Score(RiskInput{
		AccountAgeDays:   5,
		TotalWithdrawals: 0,
		IncomeTypeCount:  1,
		IncomeTxnCount:   1,
		Amount:           decimal.NewFromInt(100000),
		TotalEarned:      decimal.NewFromInt(100000),
	})
	// 15 + 10 + 20 + 10 + 10 + 占比 20 = 85
	if result.Score != 85 {
		t.Fatalf("unexpected score: %d (%v)", result.Score, result.Flags)
	}
	if result.Band != constants.RiskBandHigh {
		t.Fatalf("unexpected band: %s", result.Band)
	}
	wantFlags := map[string]bool{
		constants.RiskFlagNewAccount:          true,
		constants.RiskFlagFirstWithdrawal:     true,
		constants.RiskFlagLargeWithdrawal:     true,
		constants.RiskFlagSingleIncomeSource:  true,
		constants.RiskFlagLowIncomeActivity:   true,
		constants.RiskFlagHighWithdrawPercent: true,
	}
	if len(result.Flags) != len(wantFlags) {
		t.Fatalf("unexpected flags: %v", result.Flags)
	}
	for _, flag := range result.Flags {
		if !wantFlags[flag] {
			t.Fatalf("unexpected flag: %s", flag)
		}
	}
}

func TestRiskScorerBandBoundaries(t *testing.T) {
	scorer := newTestRiskScorer()

	// 15 + 15 + 10 = 40，恰好进入 medium
	medium := scorer.Score(RiskInput{
		AccountAgeDays:   5,
		TotalWithdrawals: 9,
		CountLast24h:     2,
		CountLastWeek:    5,
		IncomeTypeCount:  3,
		IncomeTxnCount:   10,
		Amount:           decimal.NewFromInt(100),
		TotalEarned:      decimal.Zero,
	})
	if medium.Score != 40 || medium.Band != constants.RiskBandMedium {
		t.Fatalf("unexpected medium boundary: score=%d band=%s", medium.Score, medium.Band)
	}

	// 15 + 10 + 20 + 15 + 10 = 70，恰好进入 high
	high := scorer.Score(RiskInput{
		AccountAgeDays:   5,
		TotalWithdrawals: 0,
		CountLast24h:     2,
		CountLastWeek:    5,
		IncomeTypeCount:  2,
		IncomeTxnCount:   10,
		Amount:           decimal.NewFromInt(100000),
		TotalEarned:      decimal.Zero,
	})
	if high.Score != 70 || high.Band != constants.RiskBandHigh {
		t.Fatalf("unexpected high boundary: score=%d band=%s", high.Score, high.Band)
	}
}

func TestRiskScorerClampsAtHundred(t *testing.T) {
	scorer := newTestRiskScorer()
	result := scorer.Score(RiskInput{
		AccountAgeDays:   0,
		TotalWithdrawals: 0,
		CountLast24h:     10,
		CountLastWeek:    10,
		IncomeTypeCount:  1,
		IncomeTxnCount:   0,
		Amount:           decimal.NewFromInt(200000),
		TotalEarned:      decimal.NewFromInt(100000),
	})
	if result.Score != 100 {
		t.Fatalf("score must clamp to 100, got: %d", result.Score)
	}
	if result.Band != constants.RiskBandHigh {
		t.Fatalf("unexpected band: %s", result.Band)
	}
}

func TestRiskScorerRatioContribution(t *testing.T) {
	scorer := newTestRiskScorer()
	// 提现占累计收入一半，连续项贡献 10 分
	half := scorer.Score(RiskInput{
		AccountAgeDays:   400,
		TotalWithdrawals: 3,
		IncomeTypeCount:  3,
		IncomeTxnCount:   10,
		Amount:           decimal.NewFromInt(5000),
		TotalEarned:      decimal.NewFromInt(10000),
	})
	if half.Score != 10 {
		t.Fatalf("unexpected ratio contribution: %d", half.Score)
	}
	for _, flag := range half.Flags {
		if flag == constants.RiskFlagHighWithdrawPercent {
			t.Fatalf("half ratio must not trigger high-ratio flag")
		}
	}
}

func TestRiskScorerRatioCountsCumulativeWithdrawn(t *testing.T) {
	scorer := newTestRiskScorer()
	base := RiskInput{
		AccountAgeDays:   400,
		TotalWithdrawals: 3,
		IncomeTypeCount:  3,
		IncomeTxnCount:   10,
		Amount:           decimal.NewFromInt(500),
		TotalEarned:      decimal.NewFromInt(10000),
	}

	// 无历史提现：500 / 10000 = 5%，连续项贡献 1 分
	fresh := scorer.Score(base)
	if fresh.Score != 1 {
		t.Fatalf("unexpected fresh score: %d (%v)", fresh.Score, fresh.Flags)
	}

	// 历史已提 9000：(9000 + 500) / 10000 = 95%，贡献 19 分并触发高占比标记
	drained := base
	drained.TotalWithdrawn = decimal.NewFromInt(9000)
	result := scorer.Score(drained)
	if result.Score != 19 {
		t.Fatalf("unexpected drained score: %d (%v)", result.Score, result.Flags)
	}
	if result.Score <= fresh.Score {
		t.Fatalf("cumulative withdrawn must raise the ratio score: %d vs %d", result.Score, fresh.Score)
	}
	found := false
	for _, flag := range result.Flags {
		if flag == constants.RiskFlagHighWithdrawPercent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected high-ratio flag, got: %v", result.Flags)
	}
}
