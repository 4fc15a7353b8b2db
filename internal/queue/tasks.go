package queue

import (
	"encoding/json"

	"github.com/flashbites/flashbites/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderEventNotify 订单状态事件通知任务
	TaskOrderEventNotify = constants.TaskOrderEventNotify
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
)

// OrderEventNotifyPayload 订单状态事件通知任务载荷
type OrderEventNotifyPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderEventNotifyTask 创建订单状态事件通知任务
func NewOrderEventNotifyTask(payload OrderEventNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderEventNotify, body), nil
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}
