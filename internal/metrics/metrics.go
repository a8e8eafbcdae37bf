// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TriageVerdicts counts red-flag gate outcomes by tier.
	TriageVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medcouncil_triage_verdicts_total",
		Help: "Red-flag gate verdicts by urgency tier.",
	}, []string{"tier"})

	// CouncilRequests counts council deliberations started.
	CouncilRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medcouncil_council_requests_total",
		Help: "Council deliberations started.",
	})

	// StageDuration tracks wall time per council stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medcouncil_council_stage_seconds",
		Help:    "Council stage duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// LLMDegradations counts chat-completion calls absorbed into the
	// empty-parse sentinel.
	LLMDegradations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medcouncil_llm_degradations_total",
		Help: "LLM calls that failed and returned the sentinel response.",
	})

	// ReportsIngested counts uploaded user reports.
	ReportsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medcouncil_reports_ingested_total",
		Help: "User medical reports ingested.",
	})

	// FederatedUpdates counts accepted client updates.
	FederatedUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medcouncil_federated_updates_total",
		Help: "Federated client updates accepted.",
	})

	// AggregationRounds counts completed FedAvg rounds.
	AggregationRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medcouncil_federated_aggregations_total",
		Help: "Completed federated aggregation rounds.",
	})
)
