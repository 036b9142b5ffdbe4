package service

import (
	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/constants"

	"github.com/shopspring/decimal"
)

// RiskInput 风险评分输入（由提现申请上下文采集）
type RiskInput struct {
	AccountAgeDays   int
	TotalWithdrawals int64 // 历史提现申请笔数
	CountLast24h     int64
	CountLastWeek    int64
	IncomeTypeCount  int
	IncomeTxnCount   int64
	Amount           decimal.Decimal // 本次申请金额
	TotalWithdrawn   decimal.Decimal // 历史已完成提现总额
	TotalEarned      decimal.Decimal
}

// RiskResult 风险评分结果
type RiskResult struct {
	Score int      `json:"score"`
	Flags []string `json:"flags"`
	Band  string   `json:"band"`
}

// RiskScorer 提现风险评分器。评分只提示不拦截，单调加权并截断到 0-100。
type RiskScorer struct {
	cfg *config.Config
}

// NewRiskScorer 创建风险评分器
func NewRiskScorer(cfg *config.Config) *RiskScorer {
	return &RiskScorer{cfg: cfg}
}

// Score 按加权标记累加评分并划分风险等级
func (s *RiskScorer) Score(input RiskInput) RiskResult {
	risk := s.cfg.Risk
	score := 0
	flags := make([]string, 0, 8)

	if input.AccountAgeDays < risk.NewAccountDays {
		score += risk.WeightNewAccount
		flags = append(flags, constants.RiskFlagNewAccount)
	}
	if input.TotalWithdrawals == 0 {
		score += risk.WeightFirstWithdrawal
		flags = append(flags, constants.RiskFlagFirstWithdrawal)
	}
	if input.Amount.GreaterThanOrEqual(decimal.NewFromFloat(risk.LargeAmount)) {
		score += risk.WeightLargeWithdrawal
		flags = append(flags, constants.RiskFlagLargeWithdrawal)
	}
	if input.CountLast24h >= int64(risk.Frequent24hCount) {
		score += risk.WeightFrequent24h
		flags = append(flags, constants.RiskFlagFrequent24h)
	}
	if input.CountLastWeek >= int64(risk.FrequentWeekCount) {
		score += risk.WeightFrequentWeek
		flags = append(flags, constants.RiskFlagFrequentWeek)
	}
	if input.IncomeTypeCount <= 1 {
		score += risk.WeightSingleIncomeSource
		flags = append(flags, constants.RiskFlagSingleIncomeSource)
	}
	if input.IncomeTxnCount < int64(risk.LowIncomeTxnCount) {
		score += risk.WeightLowIncomeActivity
		flags = append(flags, constants.RiskFlagLowIncomeActivity)
	}

	// 提现占累计收入比例为连续项，占比越高贡献越大。
	// 分子取历史已提总额加本次申请，避免分次提现稀释占比。
	if input.TotalEarned.GreaterThan(decimal.Zero) {
		ratio := input.TotalWithdrawn.Add(input.Amount).Div(input.TotalEarned)
		if ratio.GreaterThan(decimal.NewFromInt(1)) {
			ratio = decimal.NewFromInt(1)
		}
		contribution := ratio.Mul(decimal.NewFromInt(int64(risk.WeightWithdrawPercent))).IntPart()
		score += int(contribution)
		if ratio.GreaterThanOrEqual(decimal.NewFromFloat(risk.HighWithdrawRatio)) {
			flags = append(flags, constants.RiskFlagHighWithdrawPercent)
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	band := constants.RiskBandLow
	if score >= risk.HighThreshold {
		band = constants.RiskBandHigh
	} else if score >= risk.MediumThreshold {
		band = constants.RiskBandMedium
	}
	return RiskResult{Score: score, Flags: flags, Band: band}
}
