package models

import (
	"time"

	"gorm.io/gorm"
)

// WithdrawalRequest 提现申请表
type WithdrawalRequest struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                       // 主键
	WithdrawalNo   string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_no"` // 提现单号
	DealerID       uint           `gorm:"not null;index" json:"dealer_id"`                            // 经销商ID
	Amount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`        // 提现金额
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"`              // 状态（pending/approved/processing/completed/rejected/cancelled）
	PaymentMethod  string         `gorm:"type:varchar(32);not null" json:"payment_method"`            // 收款方式
	PaymentDetails string         `gorm:"type:varchar(255)" json:"payment_details"`                   // 收款账号信息
	RiskScore      int            `gorm:"not null;default:0" json:"risk_score"`                       // 风险评分（0-100）
	RiskFlags      StringList     `gorm:"type:json" json:"risk_flags"`                                // 命中的风险标记
	RiskBand       string         `gorm:"type:varchar(10)" json:"risk_band"`                          // 风险等级（low/medium/high）
	ApprovedBy     *uint          `json:"approved_by,omitempty"`                                      // 审批管理员ID
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`                                      // 审批时间
	RejectedBy     *uint          `json:"rejected_by,omitempty"`                                      // 驳回管理员ID
	RejectedAt     *time.Time     `json:"rejected_at,omitempty"`                                      // 驳回时间
	RejectReason   string         `gorm:"type:varchar(255)" json:"reject_reason"`                     // 驳回原因
	ReceiptRef     string         `gorm:"type:varchar(128)" json:"receipt_ref"`                       // 打款凭证号
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`                                     // 完成时间
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`                                     // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Dealer       Dealer              `gorm:"foreignKey:DealerID" json:"dealer,omitempty"`                  // 经销商
	Transactions []IncomeTransaction `gorm:"foreignKey:WithdrawalRequestID" json:"transactions,omitempty"` // 占用的收入流水
}

// TableName 指定表名
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// IsTerminal 是否处于终态
func (w WithdrawalRequest) IsTerminal() bool {
	switch w.Status {
	case "completed", "rejected", "cancelled":
		return true
	}
	return false
}
