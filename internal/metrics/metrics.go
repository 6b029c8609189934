// Package metrics holds the Prometheus collectors shared by mutation
// controllers and paginated fetchers.
//
// Collectors are registered on an injected prometheus.Registerer rather than
// the global default registry, so independent sessions (and tests) never
// collide. A nil *Collectors is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels the result of one optimistic mutation.
type Outcome string

const (
	// OutcomeConfirmed: the repository accepted the write.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeRolledBack: the repository rejected the write and the snapshot was restored.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeRejected: the mutation never reached the repository (validation, unknown id).
	OutcomeRejected Outcome = "rejected"
	// OutcomeStale: a newer mutation on the same record, or a Clear, superseded this result.
	OutcomeStale Outcome = "stale"
)

// Collectors groups the pantry metric families.
type Collectors struct {
	mutations    *prometheus.CounterVec
	inFlight     *prometheus.GaugeVec
	pageFetches  *prometheus.CounterVec
	pageDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
// Registering twice on the same registry reuses the existing collectors.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "mutations_total",
			Help:      "Optimistic mutations by entity, operation and outcome.",
		}, []string{"entity", "op", "outcome"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pantry",
			Name:      "mutations_in_flight",
			Help:      "Optimistic mutations waiting for repository confirmation.",
		}, []string{"entity"}),
		pageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "page_fetches_total",
			Help:      "Cursor page fetches by entity and outcome.",
		}, []string{"entity", "outcome"}),
		pageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pantry",
			Name:      "page_fetch_duration_seconds",
			Help:      "Latency of cursor page fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"entity"}),
	}

	var err error
	c.mutations, err = register(reg, c.mutations)
	if err != nil {
		return nil, err
	}
	c.inFlight, err = register(reg, c.inFlight)
	if err != nil {
		return nil, err
	}
	c.pageFetches, err = register(reg, c.pageFetches)
	if err != nil {
		return nil, err
	}
	c.pageDuration, err = register(reg, c.pageDuration)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// register registers col, returning the already-registered collector when
// an identical one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return col, fmt.Errorf("register metrics: %w", err)
	}
	return col, nil
}

// MutationStarted marks a mutation as in flight.
func (c *Collectors) MutationStarted(entity string) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(entity).Inc()
}

// MutationFinished records the outcome of a mutation that was in flight.
func (c *Collectors) MutationFinished(entity, op string, outcome Outcome) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(entity).Dec()
	c.mutations.WithLabelValues(entity, op, string(outcome)).Inc()
}

// MutationRejected records a mutation that never reached the repository.
func (c *Collectors) MutationRejected(entity, op string) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(entity, op, string(OutcomeRejected)).Inc()
}

// PageFetched records one page fetch.
func (c *Collectors) PageFetched(entity string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.pageFetches.WithLabelValues(entity, outcome).Inc()
	c.pageDuration.WithLabelValues(entity).Observe(elapsed.Seconds())
}
