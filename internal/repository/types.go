package repository

import "time"

// DealerListFilter 查询经销商列表的过滤条件
type DealerListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Status   string
	ParentID *uint
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	DealerID    uint
	Month       string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// BonusListFilter 查询奖金明细列表的过滤条件
type BonusListFilter struct {
	Page          int
	PageSize      int
	Month         string
	BeneficiaryID uint
	ContributorID uint
	BonusType     string
}

// IncomeListFilter 查询收入流水列表的过滤条件
type IncomeListFilter struct {
	Page        int
	PageSize    int
	DealerID    uint
	Month       string
	Type        string
	IsWithdrawn *bool
}

// WithdrawalListFilter 查询提现申请列表的过滤条件
type WithdrawalListFilter struct {
	Page         int
	PageSize     int
	DealerID     uint
	Status       string
	WithdrawalNo string
	RiskBand     string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}
