package admin

import (
	"errors"
	"strings"
	"time"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/http/response"
	"github.com/meili-next/internal/queue"
	"github.com/meili-next/internal/repository"
	"github.com/meili-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IngestOrderRequest 订单接入请求
type IngestOrderRequest struct {
	OrderNo  string `json:"order_no" binding:"required"`
	DealerID uint   `json:"dealer_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
	PaidAt   string `json:"paid_at"` // RFC3339，缺省为当前时间
}

// IngestOrder 接入一笔已支付订单并触发当月业绩重算
func (h *Handler) IngestOrder(c *gin.Context) {
	var req IngestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		respondError(c, response.CodeBadRequest, "amount invalid", err)
		return
	}
	var paidAt time.Time
	if raw := strings.TrimSpace(req.PaidAt); raw != "" {
		paidAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "paid_at invalid", err)
			return
		}
	}

	order, err := h.OrderService.Ingest(service.OrderIngestInput{
		OrderNo:  req.OrderNo,
		DealerID: req.DealerID,
		Amount:   amount,
		PaidAt:   paidAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderExists):
			respondError(c, response.CodeBadRequest, "order already exists", nil)
		case errors.Is(err, service.ErrOrderInvalid):
			respondError(c, response.CodeBadRequest, "order fields invalid", nil)
		case errors.Is(err, service.ErrDealerDisabled):
			respondError(c, response.CodeBadRequest, "dealer disabled", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeBadRequest, "dealer not found", nil)
		default:
			respondError(c, response.CodeInternal, "order ingest failed", err)
		}
		return
	}

	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueTurnoverRecompute(queue.TurnoverRecomputePayload{Month: order.Month}); err != nil {
			requestLog(c).Warnw("order_ingest_enqueue_recompute_failed", "month", order.Month, "error", err)
		}
	}

	requestLog(c).Infow("admin_order_ingested", "order_no", order.OrderNo, "dealer_id", order.DealerID, "month", order.Month)
	response.Success(c, order)
}

// IngestSubscriptionRequest 订阅扣款接入请求
type IngestSubscriptionRequest struct {
	DealerID uint   `json:"dealer_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// IngestSubscription 接入一笔订阅扣款并分发订阅奖金。
// 队列可用时异步分发，否则同步入账。
func (h *Handler) IngestSubscription(c *gin.Context) {
	var req IngestSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		respondError(c, response.CodeBadRequest, "amount invalid", err)
		return
	}

	dealer, err := h.DealerService.GetByID(req.DealerID)
	if err != nil {
		respondError(c, response.CodeInternal, "dealer lookup failed", err)
		return
	}
	if dealer == nil {
		respondError(c, response.CodeBadRequest, "dealer not found", nil)
		return
	}
	if dealer.Status != constants.DealerStatusActive {
		respondError(c, response.CodeBadRequest, "dealer disabled", nil)
		return
	}

	queued := false
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		payload := queue.SubscriptionBonusPayload{DealerID: req.DealerID, Amount: amount.String()}
		if err := h.QueueClient.EnqueueSubscriptionBonus(payload); err != nil {
			respondError(c, response.CodeInternal, "subscription bonus enqueue failed", err)
			return
		}
		queued = true
	} else if err := h.CommissionService.DistributeSubscriptionBonus(req.DealerID, amount); err != nil {
		respondError(c, response.CodeInternal, "subscription bonus distribute failed", err)
		return
	}

	requestLog(c).Infow("admin_subscription_ingested", "dealer_id", req.DealerID, "amount", amount.String(), "queued", queued)
	response.Success(c, gin.H{
		"dealer_id": req.DealerID,
		"amount":    amount.String(),
		"queued":    queued,
	})
}

// GetAdminOrders 分页查询订单
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Month:    strings.TrimSpace(c.Query("month")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if dealerID, ok := parseQueryUint(c, "dealer_id"); ok {
		filter.DealerID = dealerID
	}

	orders, total, err := h.OrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}
