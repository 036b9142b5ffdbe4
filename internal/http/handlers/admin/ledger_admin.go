package admin

import (
	"github.com/meili-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// VerifyLedgerConservation 全量校验账本守恒等式，返回不平账户
func (h *Handler) VerifyLedgerConservation(c *gin.Context) {
	broken, err := h.LedgerService.VerifyAllConservation()
	if err != nil {
		respondError(c, response.CodeInternal, "ledger conservation check failed", err)
		return
	}
	response.Success(c, gin.H{
		"passed":            len(broken) == 0,
		"broken_dealer_ids": broken,
	})
}
