package admin

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TierItemRequest 单个档位配置
type TierItemRequest struct {
	Name         string  `json:"name" binding:"required"`
	MinAmount    string  `json:"min_amount" binding:"required"`
	MaxAmount    *string `json:"max_amount"` // 空为最高档（无上限）
	BonusPercent string  `json:"bonus_percent" binding:"required"`
}

// ReplaceTiersRequest 整表替换档位配置请求
type ReplaceTiersRequest struct {
	Tiers []TierItemRequest `json:"tiers" binding:"required"`
}

// GetAdminTiers 查询档位配置
func (h *Handler) GetAdminTiers(c *gin.Context) {
	response.Success(c, h.TierService.ListTiers())
}

// ReplaceTiers 整表替换档位配置（需通过连续性校验）
func (h *Handler) ReplaceTiers(c *gin.Context) {
	var req ReplaceTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	tiers := make([]models.BonusTier, 0, len(req.Tiers))
	for _, item := range req.Tiers {
		minAmount, err := decimal.NewFromString(strings.TrimSpace(item.MinAmount))
		if err != nil {
			respondError(c, response.CodeBadRequest, "min_amount invalid", err)
			return
		}
		percent, err := decimal.NewFromString(strings.TrimSpace(item.BonusPercent))
		if err != nil {
			respondError(c, response.CodeBadRequest, "bonus_percent invalid", err)
			return
		}
		tier := models.BonusTier{
			Name:         strings.TrimSpace(item.Name),
			MinAmount:    models.NewMoneyFromDecimal(minAmount),
			BonusPercent: models.NewMoneyFromDecimal(percent),
		}
		if item.MaxAmount != nil {
			maxAmount, err := decimal.NewFromString(strings.TrimSpace(*item.MaxAmount))
			if err != nil {
				respondError(c, response.CodeBadRequest, "max_amount invalid", err)
				return
			}
			maxMoney := models.NewMoneyFromDecimal(maxAmount)
			tier.MaxAmount = &maxMoney
		}
		tiers = append(tiers, tier)
	}

	if err := h.TierService.ReplaceTiers(tiers); err != nil {
		if errors.Is(err, service.ErrTierConfigInvalid) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "tier replace failed", err)
		return
	}

	requestLog(c).Infow("admin_tiers_replaced", "count", len(tiers))
	response.Success(c, h.TierService.ListTiers())
}
