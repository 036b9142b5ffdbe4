package constants

// 经销商状态常量
const (
	DealerStatusActive   = "active"
	DealerStatusDisabled = "disabled"
)

// 结算周期状态常量
const (
	PeriodStatusOpen      = "open"
	PeriodStatusFinalized = "finalized"
	PeriodStatusPaid      = "paid"
)

// 奖金记录类型常量
const (
	BonusTypePersonal     = "personal"
	BonusTypeDifferential = "differential"
)

// 收入流水类型常量
const (
	IncomeTypeOrderBonus        = "order_bonus"
	IncomeTypeDifferentialBonus = "differential_bonus"
	IncomeTypeSubscriptionBonus = "subscription_bonus"
)

// 提现申请状态常量
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusApproved   = "approved"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
	WithdrawalStatusCancelled  = "cancelled"
)

// 风险评估等级常量
const (
	RiskBandLow    = "low"
	RiskBandMedium = "medium"
	RiskBandHigh   = "high"
)

// 风险标记常量
const (
	RiskFlagNewAccount          = "is_new_account"
	RiskFlagFirstWithdrawal     = "first_withdrawal"
	RiskFlagLargeWithdrawal     = "large_withdrawal"
	RiskFlagFrequent24h         = "frequent_withdrawals_24h"
	RiskFlagFrequentWeek        = "frequent_withdrawals_week"
	RiskFlagSingleIncomeSource  = "single_income_source"
	RiskFlagLowIncomeActivity   = "low_income_activity"
	RiskFlagHighWithdrawPercent = "high_withdrawal_percentage"
)

// 审计检查类型常量
const (
	AuditCheckPersonalTurnover = "personal_turnover"
	AuditCheckTeamTurnover     = "team_turnover"
	AuditCheckTotalTurnover    = "total_turnover"
	AuditCheckBonusPercent     = "bonus_percent"
	AuditCheckResolvedTier     = "resolved_tier"
	AuditCheckMissingRecord    = "missing_record"
	AuditCheckOrphanRecord     = "orphan_record"
)

// 异步任务类型常量
const (
	TaskTurnoverRecompute = "turnover:recompute"
	TaskSubscriptionBonus = "subscription:bonus"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 结算月份格式（time.Parse 布局）
const MonthLayout = "2006-01"
