package queue

import (
	"encoding/json"

	"github.com/meili-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTurnoverRecompute 业绩重算任务
	TaskTurnoverRecompute = constants.TaskTurnoverRecompute
	// TaskSubscriptionBonus 订阅奖金发放任务
	TaskSubscriptionBonus = constants.TaskSubscriptionBonus
)

// TurnoverRecomputePayload 业绩重算任务载荷
type TurnoverRecomputePayload struct {
	Month string `json:"month"`
}

// SubscriptionBonusPayload 订阅奖金任务载荷
type SubscriptionBonusPayload struct {
	DealerID uint   `json:"dealer_id"`
	Amount   string `json:"amount"`
}

// NewTurnoverRecomputeTask 创建业绩重算任务
func NewTurnoverRecomputeTask(payload TurnoverRecomputePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTurnoverRecompute, body), nil
}

// NewSubscriptionBonusTask 创建订阅奖金任务
func NewSubscriptionBonusTask(payload SubscriptionBonusPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubscriptionBonus, body), nil
}
