/**
 * @description
 * Prometheus instrumentation for the webhook pipeline. Counters are
 * registered on the default registry and exposed on /metrics.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook processing outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeDropped = "dropped"
	OutcomeError   = "error"
)

// WebhookEventsTotal counts processed webhook events by provider event
// type and outcome. "dropped" covers unknown customers and unhandled
// event types; "error" covers storage faults.
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "billing",
		Subsystem: "webhooks",
		Name:      "events_total",
		Help:      "Webhook events received, by provider event type and outcome.",
	},
	[]string{"type", "outcome"},
)
