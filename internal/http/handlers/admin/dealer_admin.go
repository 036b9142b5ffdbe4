package admin

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateDealerStatusRequest 启停经销商请求
type UpdateDealerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateDealer 创建经销商
func (h *Handler) CreateDealer(c *gin.Context) {
	var input service.DealerCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	dealer, err := h.DealerService.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeBadRequest, "parent dealer not found or fields missing", nil)
		case errors.Is(err, service.ErrDealerDisabled):
			respondError(c, response.CodeBadRequest, "parent dealer disabled", nil)
		default:
			respondError(c, response.CodeInternal, "dealer create failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_dealer_created", "dealer_id", dealer.ID)
	response.Success(c, dealer)
}

// GetAdminDealers 分页查询经销商
func (h *Handler) GetAdminDealers(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.DealerListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if parentID, ok := parseQueryUint(c, "parent_id"); ok {
		filter.ParentID = &parentID
	}

	dealers, total, err := h.DealerService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "dealer list failed", err)
		return
	}
	response.SuccessWithPage(c, dealers, response.BuildPagination(page, pageSize, total))
}

// GetAdminDealer 查询经销商详情
func (h *Handler) GetAdminDealer(c *gin.Context) {
	dealerID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "dealer id invalid", nil)
		return
	}
	dealer, err := h.DealerService.GetByID(dealerID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "dealer not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "dealer fetch failed", err)
		return
	}
	response.Success(c, dealer)
}

// UpdateDealerStatus 启用/停用经销商
func (h *Handler) UpdateDealerStatus(c *gin.Context) {
	dealerID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "dealer id invalid", nil)
		return
	}
	var req UpdateDealerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	dealer, err := h.DealerService.SetStatus(dealerID, strings.TrimSpace(req.Status))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "dealer not found or status invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "dealer update failed", err)
		return
	}

	requestLog(c).Infow("admin_dealer_status_updated", "dealer_id", dealer.ID, "status", dealer.Status)
	response.Success(c, dealer)
}

// GetAdminDealerTeam 查询经销商团队视图
func (h *Handler) GetAdminDealerTeam(c *gin.Context) {
	dealerID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "dealer id invalid", nil)
		return
	}
	month, ok := resolveMonthQuery(c)
	if !ok {
		return
	}

	team, err := h.DealerService.Team(dealerID, month)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "dealer not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "team fetch failed", err)
		return
	}
	response.Success(c, team)
}

// GetAdminDealerLedger 查询经销商账本概览
func (h *Handler) GetAdminDealerLedger(c *gin.Context) {
	dealerID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "dealer id invalid", nil)
		return
	}
	snapshot, err := h.LedgerService.Snapshot(dealerID)
	if err != nil {
		respondError(c, response.CodeInternal, "ledger fetch failed", err)
		return
	}
	response.Success(c, snapshot)
}

// GetAdminDealerLedgerTransactions 查询经销商收入流水
func (h *Handler) GetAdminDealerLedgerTransactions(c *gin.Context) {
	dealerID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "dealer id invalid", nil)
		return
	}
	page, pageSize := parsePageQuery(c)
	filter := repository.IncomeListFilter{
		Page:     page,
		PageSize: pageSize,
		DealerID: dealerID,
		Month:    strings.TrimSpace(c.Query("month")),
		Type:     strings.TrimSpace(c.Query("type")),
	}

	transactions, total, err := h.LedgerService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "ledger transactions fetch failed", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}
