package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerAccount 经销商账本（余额只由月度发放与提现流转变更）
type LedgerAccount struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	DealerID       uint      `gorm:"uniqueIndex;not null" json:"dealer_id"`                        // 经销商ID
	CurrentBalance Money     `gorm:"type:decimal(20,2);not null;default:0" json:"current_balance"` // 当前余额
	FrozenBalance  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"frozen_balance"`  // 冻结余额（提现在途）
	TotalWithdrawn Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_withdrawn"` // 累计已提现
	TotalEarned    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_earned"`    // 累计入账
	CreatedAt      time.Time `json:"created_at"`                                                   // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                   // 更新时间

	Dealer Dealer `gorm:"foreignKey:DealerID" json:"dealer,omitempty"` // 经销商
}

// TableName 指定表名
func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// AvailableBalance 可提现余额（当前余额减冻结余额）
func (a LedgerAccount) AvailableBalance() Money {
	return NewMoneyFromDecimal(a.CurrentBalance.Decimal.Sub(a.FrozenBalance.Decimal))
}

// ConservationDelta 余额守恒差值（current + withdrawn - earned，应恒为 0）
func (a LedgerAccount) ConservationDelta() decimal.Decimal {
	return a.CurrentBalance.Decimal.Add(a.TotalWithdrawn.Decimal).Sub(a.TotalEarned.Decimal).Round(2)
}
