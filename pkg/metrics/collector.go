// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total number of order workflow transitions",
		},
		[]string{"from", "to"},
	)
	ledgerOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger mutations labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	dailyClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_claims_total",
			Help: "Total number of daily-reward claim attempts by outcome",
		},
		[]string{"outcome"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	accountsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_accounts_total",
			Help: "Current number of ledger accounts",
		},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordOrderTransition counts a workflow status change. Hooked into the
// order package's transition recorder at startup.
func RecordOrderTransition(from, to string) {
	orderTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordLedgerOp counts a ledger mutation.
func RecordLedgerOp(operation, status string) {
	ledgerOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDailyClaim counts a daily-reward claim attempt.
func RecordDailyClaim(outcome string) {
	dailyClaimsTotal.WithLabelValues(outcome).Inc()
}

// RecordError counts an application error occurrence.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetAccountsTotal updates the ledger accounts gauge.
func SetAccountsTotal(n int64) {
	accountsTotal.Set(float64(n))
}

// AccountCounter reports the total number of ledger accounts.
type AccountCounter interface {
	CountAccounts(ctx context.Context) (int64, error)
}

// RefreshAccountsGauge queries the counter and updates the gauge.
func RefreshAccountsGauge(ctx context.Context, counter AccountCounter) error {
	count, err := counter.CountAccounts(ctx)
	if err != nil {
		return err
	}

	SetAccountsTotal(count)
	return nil
}
