package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/provider"
	"github.com/meili-next/internal/queue"
	"github.com/meili-next/internal/service"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTurnoverRecompute, c.handleTurnoverRecompute)
	mux.HandleFunc(queue.TaskSubscriptionBonus, c.handleSubscriptionBonus)
}

func (c *Consumer) handleTurnoverRecompute(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_turnover_recompute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TurnoverRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_turnover_recompute_unmarshal_failed", "error", err)
		return err
	}
	if payload.Month == "" {
		logger.Debugw("worker_turnover_recompute_skip_invalid_payload")
		return nil
	}
	if c.TurnoverService == nil {
		logger.Warnw("worker_turnover_recompute_skip_service_nil", "month", payload.Month)
		return nil
	}
	records, err := c.TurnoverService.RecomputeMonth(payload.Month)
	if err != nil {
		if errors.Is(err, service.ErrPeriodFinalized) {
			// 封账后的重算任务是迟到的旧事件，丢弃即可
			logger.Debugw("worker_turnover_recompute_skip_finalized", "month", payload.Month)
			return nil
		}
		logger.Warnw("worker_turnover_recompute_failed", "month", payload.Month, "error", err)
		return err
	}
	logger.Infow("worker_turnover_recomputed", "month", payload.Month, "records", len(records))
	return nil
}

func (c *Consumer) handleSubscriptionBonus(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_subscription_bonus_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SubscriptionBonusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_subscription_bonus_unmarshal_failed", "error", err)
		return err
	}
	if payload.DealerID == 0 {
		logger.Debugw("worker_subscription_bonus_skip_invalid_payload", "dealer_id", payload.DealerID)
		return nil
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		logger.Warnw("worker_subscription_bonus_amount_invalid", "dealer_id", payload.DealerID, "amount", payload.Amount, "error", err)
		return nil
	}
	if c.CommissionService == nil {
		logger.Warnw("worker_subscription_bonus_skip_service_nil", "dealer_id", payload.DealerID)
		return nil
	}
	if err := c.CommissionService.DistributeSubscriptionBonus(payload.DealerID, amount); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_subscription_bonus_skip_dealer_not_found", "dealer_id", payload.DealerID)
			return nil
		}
		logger.Warnw("worker_subscription_bonus_failed", "dealer_id", payload.DealerID, "error", err)
		return err
	}
	return nil
}
