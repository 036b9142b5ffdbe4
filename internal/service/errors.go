package service

import (
	"errors"
	"fmt"
)

// 通用错误
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrInvalidMonth       = errors.New("月份格式无效")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("密码错误")
)

// 配置类错误（致命，不自动恢复）
var (
	ErrTierConfigInvalid = errors.New("奖金档位配置无效")
	ErrSponsorTreeCycle  = errors.New("经销商谱系存在环")
	ErrSponsorTreeOrphan = errors.New("经销商谱系存在悬空上级")
)

// 周期状态流转错误
var (
	ErrPeriodIsCurrent        = errors.New("当前月份不能封账")
	ErrPeriodAlreadyFinalized = errors.New("结算周期已封账")
	ErrPeriodNotFinalized     = errors.New("结算周期尚未封账")
	ErrPeriodAlreadyPaid      = errors.New("结算周期已发放")
	ErrPeriodFinalized        = errors.New("结算周期已封账，业绩不可变更")
	ErrPeriodNoData           = errors.New("结算周期没有业绩数据")
)

// 提现与账本错误
var (
	ErrWithdrawalStatusInvalid = errors.New("提现申请状态不允许该操作")
	ErrBelowMinimumWithdrawal  = errors.New("提现金额低于最低提现额")
	ErrInsufficientFunds       = errors.New("可提现余额不足")
	ErrRejectReasonRequired    = errors.New("驳回必须填写原因")
	ErrClaimConflict           = errors.New("收入流水已被其他提现申请占用")
	ErrLedgerConservation      = errors.New("账本余额守恒校验失败")
)

// 经销商与订单错误
var (
	ErrDealerDisabled = errors.New("经销商已停用")
	ErrOrderExists    = errors.New("订单号已存在")
	ErrOrderInvalid   = errors.New("订单数据无效")
)

// AuditMismatchError 对账差异错误，封账前拦截并携带差异明细
type AuditMismatchError struct {
	Month  string
	Issues []AuditIssue
}

// Error 实现 error 接口
func (e *AuditMismatchError) Error() string {
	return fmt.Sprintf("月份 %s 对账发现 %d 处差异", e.Month, len(e.Issues))
}

// AsAuditMismatch 提取对账差异错误
func AsAuditMismatch(err error) (*AuditMismatchError, bool) {
	var mismatch *AuditMismatchError
	if errors.As(err, &mismatch) {
		return mismatch, true
	}
	return nil, false
}
