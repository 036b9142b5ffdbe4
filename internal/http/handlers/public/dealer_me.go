package public

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
)

func resolveMonthQuery(c *gin.Context) (string, bool) {
	month := strings.TrimSpace(c.Query("month"))
	if month == "" {
		return service.CurrentMonth(), true
	}
	if err := service.ValidateMonth(month); err != nil {
		respondError(c, response.CodeBadRequest, "month invalid, expect YYYY-MM", nil)
		return "", false
	}
	return month, true
}

// GetMyProfile 获取当前经销商档案
func (h *Handler) GetMyProfile(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
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

// GetMyTurnover 获取当前经销商指定月份的业绩
func (h *Handler) GetMyTurnover(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	month, ok := resolveMonthQuery(c)
	if !ok {
		return
	}
	record, err := h.TurnoverService.GetDealerTurnover(dealerID, month)
	if err != nil {
		respondError(c, response.CodeInternal, "turnover fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"month":    month,
		"turnover": record,
	})
}

// GetMyTurnoverHistory 获取当前经销商的历史业绩
func (h *Handler) GetMyTurnoverHistory(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	records, err := h.TurnoverService.ListDealerTurnover(dealerID)
	if err != nil {
		respondError(c, response.CodeInternal, "turnover history fetch failed", err)
		return
	}
	response.Success(c, records)
}

// GetMyTeam 获取当前经销商的团队视图
func (h *Handler) GetMyTeam(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
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

// GetMyBonuses 分页查询当前经销商的奖金明细
func (h *Handler) GetMyBonuses(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	filter := repository.BonusListFilter{
		Page:          page,
		PageSize:      pageSize,
		Month:         strings.TrimSpace(c.Query("month")),
		BeneficiaryID: dealerID,
		BonusType:     strings.TrimSpace(c.Query("bonus_type")),
	}

	bonuses, total, err := h.BonusRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "bonus list failed", err)
		return
	}
	response.SuccessWithPage(c, bonuses, response.BuildPagination(page, pageSize, total))
}

// GetMyLedger 获取当前经销商的账本概览
func (h *Handler) GetMyLedger(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
		return
	}
	snapshot, err := h.LedgerService.Snapshot(dealerID)
	if err != nil {
		respondError(c, response.CodeInternal, "ledger fetch failed", err)
		return
	}
	response.Success(c, snapshot)
}

// GetMyLedgerTransactions 分页查询当前经销商的收入流水
func (h *Handler) GetMyLedgerTransactions(c *gin.Context) {
	dealerID, ok := getDealerID(c)
	if !ok {
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
	if raw := strings.TrimSpace(c.Query("is_withdrawn")); raw != "" {
		isWithdrawn := raw == "true" || raw == "1"
		filter.IsWithdrawn = &isWithdrawn
	}

	transactions, total, err := h.LedgerService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "ledger transactions fetch failed", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}
