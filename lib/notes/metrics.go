package notes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keepnotes",
		Name:      "note_transitions_total",
		Help:      "Note writes by lifecycle action.",
	}, []string{"action"})

	batchResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keepnotes",
		Name:      "batch_items_total",
		Help:      "Per-note outcomes of batch operations.",
	}, []string{"action", "outcome"})
)
