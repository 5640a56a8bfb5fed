package agent

import "github.com/prometheus/client_golang/prometheus"

var completionRetries = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "mindplay",
	Subsystem: "agent",
	Name:      "completion_retries_total",
	Help:      "Chat completion attempts retried after a failure or empty response.",
})

func init() {
	prometheus.MustRegister(completionRetries)
}
