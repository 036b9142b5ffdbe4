package models

import (
	"time"
)

// Order 已支付订单事件表（由订单履约系统推送）
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"` // 订单号
	DealerID  uint      `gorm:"not null;index" json:"dealer_id"`                       // 下单经销商ID
	Amount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`   // 订单金额
	Month     string    `gorm:"type:varchar(7);not null;index" json:"month"`           // 结算月份（YYYY-MM，按支付时间归属）
	PaidAt    time.Time `gorm:"not null;index" json:"paid_at"`                         // 支付时间
	CreatedAt time.Time `gorm:"index" json:"created_at"`                               // 创建时间

	Dealer Dealer `gorm:"foreignKey:DealerID" json:"dealer,omitempty"` // 下单经销商
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
