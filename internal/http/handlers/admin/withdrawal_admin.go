package admin

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RejectWithdrawalRequest 驳回提现请求
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CompleteWithdrawalRequest 完成提现请求
type CompleteWithdrawalRequest struct {
	ReceiptRef string `json:"receipt_ref"`
}

// GetAdminWithdrawals 分页查询提现申请
func (h *Handler) GetAdminWithdrawals(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.WithdrawalListFilter{
		Page:         page,
		PageSize:     pageSize,
		Status:       strings.TrimSpace(c.Query("status")),
		WithdrawalNo: strings.TrimSpace(c.Query("withdrawal_no")),
		RiskBand:     strings.TrimSpace(c.Query("risk_band")),
	}
	if dealerID, ok := parseQueryUint(c, "dealer_id"); ok {
		filter.DealerID = dealerID
	}

	requests, total, err := h.WithdrawalService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "withdrawal list failed", err)
		return
	}
	response.SuccessWithPage(c, requests, response.BuildPagination(page, pageSize, total))
}

// GetAdminWithdrawal 查询提现申请详情
func (h *Handler) GetAdminWithdrawal(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdrawal id invalid", nil)
		return
	}
	req, err := h.WithdrawalService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "withdrawal not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "withdrawal fetch failed", err)
		return
	}
	response.Success(c, req)
}

// ApproveWithdrawal 审批通过提现申请
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	h.transitionWithdrawal(c, "admin_withdrawal_approved", func(id, adminID uint) (interface{}, error) {
		return h.WithdrawalService.Approve(id, adminID)
	})
}

// RejectWithdrawal 驳回提现申请并解冻资金
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	var body RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, response.CodeBadRequest, "reject reason required", err)
		return
	}
	h.transitionWithdrawal(c, "admin_withdrawal_rejected", func(id, adminID uint) (interface{}, error) {
		return h.WithdrawalService.Reject(id, adminID, strings.TrimSpace(body.Reason))
	})
}

// MarkWithdrawalProcessing 标记提现打款中
func (h *Handler) MarkWithdrawalProcessing(c *gin.Context) {
	h.transitionWithdrawal(c, "admin_withdrawal_processing", func(id, adminID uint) (interface{}, error) {
		return h.WithdrawalService.MarkProcessing(id, adminID)
	})
}

// CompleteWithdrawal 完成提现：扣减余额并记录打款凭证
func (h *Handler) CompleteWithdrawal(c *gin.Context) {
	// 凭证可选，空 body 不视为错误
	var body CompleteWithdrawalRequest
	_ = c.ShouldBindJSON(&body)
	h.transitionWithdrawal(c, "admin_withdrawal_completed", func(id, adminID uint) (interface{}, error) {
		return h.WithdrawalService.Complete(id, adminID, strings.TrimSpace(body.ReceiptRef))
	})
}

// CancelWithdrawal 管理端取消提现申请并解冻资金
func (h *Handler) CancelWithdrawal(c *gin.Context) {
	h.transitionWithdrawal(c, "admin_withdrawal_cancelled", func(id, adminID uint) (interface{}, error) {
		return h.WithdrawalService.Cancel(id, adminID, true)
	})
}

func (h *Handler) transitionWithdrawal(c *gin.Context, event string, fn func(id, adminID uint) (interface{}, error)) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdrawal id invalid", nil)
		return
	}

	result, err := fn(id, adminID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "withdrawal not found", nil)
		case errors.Is(err, service.ErrWithdrawalStatusInvalid):
			respondError(c, response.CodeBadRequest, "withdrawal status does not allow this action", nil)
		case errors.Is(err, service.ErrRejectReasonRequired):
			respondError(c, response.CodeBadRequest, "reject reason required", nil)
		case errors.Is(err, service.ErrInsufficientFunds):
			respondError(c, response.CodeBadRequest, "account balance insufficient", nil)
		default:
			respondError(c, response.CodeInternal, "withdrawal update failed", err)
		}
		return
	}

	requestLog(c).Infow(event, "withdrawal_id", id, "admin_id", adminID)
	response.Success(c, result)
}
