package admin

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
)

func resolveMonthParam(c *gin.Context) (string, bool) {
	month := strings.TrimSpace(c.Param("month"))
	if err := service.ValidateMonth(month); err != nil {
		respondError(c, response.CodeBadRequest, "month invalid, expect YYYY-MM", nil)
		return "", false
	}
	return month, true
}

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

// GetAdminPeriods 查询结算周期列表
func (h *Handler) GetAdminPeriods(c *gin.Context) {
	periods, err := h.PeriodService.ListPeriods()
	if err != nil {
		respondError(c, response.CodeInternal, "period list failed", err)
		return
	}
	response.Success(c, periods)
}

// GetAdminPeriodStatus 查询单个结算周期状态
func (h *Handler) GetAdminPeriodStatus(c *gin.Context) {
	month, ok := resolveMonthParam(c)
	if !ok {
		return
	}
	status, err := h.PeriodService.Status(month)
	if err != nil {
		respondError(c, response.CodeInternal, "period status failed", err)
		return
	}
	response.Success(c, status)
}

// PreviewPeriod 试算指定月份的奖金分配（只读，不落库）
func (h *Handler) PreviewPeriod(c *gin.Context) {
	month, ok := resolveMonthParam(c)
	if !ok {
		return
	}
	result, err := h.PeriodService.Preview(month)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPeriodAlreadyFinalized):
			respondError(c, response.CodeBadRequest, "period already finalized", nil)
		case errors.Is(err, service.ErrPeriodNoData):
			respondError(c, response.CodeBadRequest, "no order data for this month", nil)
		case errors.Is(err, service.ErrTierConfigInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "period preview failed", err)
		}
		return
	}
	response.Success(c, result)
}

// AuditPeriod 对账指定月份的业绩记录
func (h *Handler) AuditPeriod(c *gin.Context) {
	month, ok := resolveMonthParam(c)
	if !ok {
		return
	}
	issues, err := h.PeriodService.Audit(month)
	if err != nil {
		respondError(c, response.CodeInternal, "period audit failed", err)
		return
	}
	response.Success(c, gin.H{
		"month":  month,
		"passed": len(issues) == 0,
		"issues": issues,
	})
}

// RecomputePeriodTurnover 重算指定月份业绩
func (h *Handler) RecomputePeriodTurnover(c *gin.Context) {
	month, ok := resolveMonthParam(c)
	if !ok {
		return
	}
	records, err := h.TurnoverService.RecomputeMonth(month)
	if err != nil {
		if errors.Is(err, service.ErrPeriodFinalized) {
			respondError(c, response.CodeBadRequest, "period already finalized", nil)
			return
		}
		respondError(c, response.CodeInternal, "turnover recompute failed", err)
		return
	}

	requestLog(c).Infow("admin_turnover_recomputed", "month", month, "records", len(records))
	response.Success(c, gin.H{
		"month":   month,
		"records": len(records),
	})
}

// FinalizePeriod 封账：固化业绩与奖金记录
func (h *Handler) FinalizePeriod(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	month, ok := resolveMonthParam(c)
	if !ok {
		return
	}

	period, err := h.PeriodService.Finalize(month, adminID)
	if err != nil {
		if mismatch, matched := service.AsAuditMismatch(err); matched {
			requestLog(c).Warnw("admin_period_finalize_audit_mismatch", "month", month, "issues", len(mismatch.Issues))
			response.ErrorWithData(c, response.CodeBadRequest, "audit mismatch, finalize aborted", gin.H{
				"month":  mismatch.Month,
				"issues": mismatch.Issues,
			})
			return
		}
		switch {
		case errors.Is(err, service.ErrPeriodIsCurrent):
			respondError(c, response.CodeBadRequest, "current or future month cannot be finalized", nil)
		case errors.Is(err, service.ErrPeriodAlreadyFinalized):
			respondError(c, response.CodeBadRequest, "period already finalized", nil)
		case errors.Is(err, service.ErrPeriodNoData):
			respondError(c, response.CodeBadRequest, "no order data for this month", nil)
		case errors.Is(err, service.ErrTierConfigInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "period finalize failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_period_finalized", "month", month, "admin_id", adminID)
	response.Success(c, period)
}

// PayPeriod 发放：将封账后的奖金逐笔入账
func (h *Handler) PayPeriod(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	month, ok := resolveMonthParam(c)
	if !ok {
		return
	}

	period, err := h.PeriodService.Pay(month, adminID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPeriodNotFinalized):
			respondError(c, response.CodeBadRequest, "period not finalized yet", nil)
		case errors.Is(err, service.ErrPeriodAlreadyPaid):
			respondError(c, response.CodeBadRequest, "period already paid", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "period not found", nil)
		default:
			respondError(c, response.CodeInternal, "period pay failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_period_paid", "month", month, "admin_id", adminID)
	response.Success(c, period)
}

// GetAdminBonuses 分页查询奖金明细
func (h *Handler) GetAdminBonuses(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.BonusListFilter{
		Page:      page,
		PageSize:  pageSize,
		Month:     strings.TrimSpace(c.Query("month")),
		BonusType: strings.TrimSpace(c.Query("bonus_type")),
	}
	if beneficiaryID, ok := parseQueryUint(c, "beneficiary_id"); ok {
		filter.BeneficiaryID = beneficiaryID
	}
	if contributorID, ok := parseQueryUint(c, "contributor_id"); ok {
		filter.ContributorID = contributorID
	}

	bonuses, total, err := h.BonusRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "bonus list failed", err)
		return
	}
	response.SuccessWithPage(c, bonuses, response.BuildPagination(page, pageSize, total))
}
