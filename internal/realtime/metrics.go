package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calculator_ws_connections",
		Help: "Number of open keypad WebSocket connections.",
	})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_ws_messages_total",
		Help: "Keypad WebSocket messages by direction (in, out, dropped).",
	}, []string{"direction"})
)
