package public

import (
	"strconv"
	"strings"

	handlershared "github.com/meili-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getDealerID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "dealer_id", "dealer id invalid", "dealer id type invalid")
}

func parsePathUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

func parsePageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return handlershared.NormalizePagination(page, pageSize)
}
