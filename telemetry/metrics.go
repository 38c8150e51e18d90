// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// setup for the bot.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesSent    prometheus.Counter
	MessagesDeduped prometheus.Counter
	Reconnects      prometheus.Counter
	LedgerLookups   prometheus.Counter
	LedgerWrites    prometheus.Counter
	HandoutRounds   prometheus.Counter

	// Gauges
	QueueDepthGauge prometheus.Gauge
	ActiveModeGauge prometheus.Gauge // 0=idle 1=auction 2=raffle 3=betting
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "coinbot_messages_sent_total", Help: "Chat messages written to IRC"})
		MessagesDeduped = promauto.NewCounter(prometheus.CounterOpts{Name: "coinbot_messages_deduped_total", Help: "Outbound messages rewritten to avoid duplicate suppression"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "coinbot_irc_reconnects_total", Help: "IRC reconnect attempts after a lost connection"})
		LedgerLookups = promauto.NewCounter(prometheus.CounterOpts{Name: "coinbot_ledger_lookups_total", Help: "Batched balance lookups issued"})
		LedgerWrites = promauto.NewCounter(prometheus.CounterOpts{Name: "coinbot_ledger_writes_total", Help: "Ledger adjustment statements executed"})
		HandoutRounds = promauto.NewCounter(prometheus.CounterOpts{Name: "coinbot_handout_rounds_total", Help: "Completed periodic coin handouts"})
		QueueDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "coinbot_queue_depth", Help: "Current outbound queue depth"})
		ActiveModeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "coinbot_active_mode", Help: "Active game mode: 0=idle 1=auction 2=raffle 3=betting"})
	})
}

// IncMessagesSent increments the sent counter if metrics are initialized.
func IncMessagesSent() {
	if MessagesSent != nil {
		MessagesSent.Inc()
	}
}

func IncMessagesDeduped() {
	if MessagesDeduped != nil {
		MessagesDeduped.Inc()
	}
}

func IncReconnects() {
	if Reconnects != nil {
		Reconnects.Inc()
	}
}

func IncLedgerLookups() {
	if LedgerLookups != nil {
		LedgerLookups.Inc()
	}
}

func IncLedgerWrites() {
	if LedgerWrites != nil {
		LedgerWrites.Inc()
	}
}

func IncHandoutRounds() {
	if HandoutRounds != nil {
		HandoutRounds.Inc()
	}
}

// SetQueueDepth records the current outbound queue depth.
func SetQueueDepth(n int) {
	if QueueDepthGauge != nil {
		QueueDepthGauge.Set(float64(n))
	}
}

// SetActiveMode records the active game mode as a small integer.
func SetActiveMode(mode int) {
	if ActiveModeGauge != nil {
		ActiveModeGauge.Set(float64(mode))
	}
}
