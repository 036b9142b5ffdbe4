package public

import (
	"errors"

	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateMyWithdrawal 提交提现申请（勾选收入流水）
func (h *Handler) CreateMyWithdrawal(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	var input service.WithdrawalCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	req, err := h.WithdrawalService.Create(dealerID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeBadRequest, "selected transactions not found", nil)
		case errors.Is(err, service.ErrDealerDisabled):
			respondError(c, response.CodeForbidden, "dealer disabled", nil)
		case errors.Is(err, service.ErrClaimConflict):
			respondError(c, response.CodeBadRequest, "some transactions already claimed by another withdrawal", nil)
		case errors.Is(err, service.ErrBelowMinimumWithdrawal):
			respondError(c, response.CodeBadRequest, "amount below minimum withdrawal", nil)
		case errors.Is(err, service.ErrInsufficientFunds):
			respondError(c, response.CodeBadRequest, "available balance insufficient", nil)
		default:
			respondError(c, response.CodeInternal, "withdrawal create failed", err)
		}
		return
	}

	requestLog(c).Infow("dealer_withdrawal_created",
		"dealer_id", dealerID,
		"withdrawal_no", req.WithdrawalNo,
		"risk_band", req.RiskBand,
	)
	response.Success(c, req)
}

// GetMyWithdrawals 分页查询当前经销商的提现申请
func (h *Handler) GetMyWithdrawals(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	filter := repository.WithdrawalListFilter{
		Page:     page,
		PageSize: pageSize,
		DealerID: dealerID,
		Status:   c.Query("status"),
	}

	requests, total, err := h.WithdrawalService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "withdrawal list failed", err)
		return
	}
	response.SuccessWithPage(c, requests, response.BuildPagination(page, pageSize, total))
}

// GetMyWithdrawal 查询当前经销商的提现申请详情
func (h *Handler) GetMyWithdrawal(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
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
	if req.DealerID != dealerID {
		respondError(c, response.CodeNotFound, "withdrawal not found", nil)
		return
	}
	response.Success(c, req)
}

// CancelMyWithdrawal 取消当前经销商的提现申请
func (h *Handler) CancelMyWithdrawal(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "withdrawal id invalid", nil)
		return
	}

	req, err := h.WithdrawalService.Cancel(id, dealerID, false)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "withdrawal not found", nil)
		case errors.Is(err, service.ErrWithdrawalStatusInvalid):
			respondError(c, response.CodeBadRequest, "withdrawal status does not allow cancel", nil)
		default:
			respondError(c, response.CodeInternal, "withdrawal cancel failed", err)
		}
		return
	}

	requestLog(c).Infow("dealer_withdrawal_cancelled", "dealer_id", dealerID, "withdrawal_id", id)
	response.Success(c, req)
}
