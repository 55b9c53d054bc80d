package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeLedgerStats = "ledger:stats"
	TaskTypeTopicSweep  = "topics:sweep"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// TopicSweepPayload bounds which retired topics the sweep may remove.
type TopicSweepPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewLedgerStatsTask refreshes the accounts gauge from the database.
func NewLedgerStatsTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLedgerStats, nil, asynq.Queue(QueueDefault))
}

// NewTopicSweepTask removes stale paid-order topics from the registry.
func NewTopicSweepTask(olderThan time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(TopicSweepPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeTopicSweep, payload, asynq.Queue(QueueLow)), nil
}
