// Copyright 2025 Certen Protocol
//
// Package metrics exposes Prometheus counters for the signing loop.
// The teacher repo declares github.com/prometheus/client_golang as a
// direct dependency but never actually registers a metric with it;
// this package is where that dependency earns its keep.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every counter the coordinator increments over the
// course of one or more Sign runs. A Registry can be registered with
// a prometheus.Registerer (e.g. the default registry, or one scoped
// to a single cmd/signumd process) via Register.
type Registry struct {
	RunsStarted         prometheus.Counter
	RunsCompleted       prometheus.Counter
	SignaturesCollected prometheus.Counter
	Skips               prometheus.Counter
	Aborts              prometheus.Counter
	DriverRetries       prometheus.Counter
	DriverFailures      prometheus.Counter
}

// NewRegistry constructs an unregistered Registry. Callers embedding
// the coordinator in a long-running process should call Register once
// against their process-wide prometheus.Registerer; callers using the
// coordinator as a library for a single one-shot run may simply read
// the counters' values directly without ever registering them.
func NewRegistry() *Registry {
	return &Registry{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "runs_started_total",
			Help:      "Number of Coordinator.Sign invocations started.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "runs_completed_total",
			Help:      "Number of Coordinator.Sign invocations that returned an Outcome.",
		}),
		SignaturesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "signatures_collected_total",
			Help:      "Number of signed shares recorded across every factor list petition.",
		}),
		Skips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "factor_source_skips_total",
			Help:      "Number of factor sources recorded as skipped.",
		}),
		Aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "user_aborts_total",
			Help:      "Number of Sign runs terminated by a UserAborted driver outcome.",
		}),
		DriverRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "driver_retries_total",
			Help:      "Number of times a DriverFailed outcome was retried.",
		}),
		DriverFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signum",
			Subsystem: "coordinator",
			Name:      "driver_failures_total",
			Help:      "Number of DriverFailed outcomes ultimately converted to skips.",
		}),
	}
}

// Register adds every counter in r to reg. Safe to call once per
// Registry instance; registering the same Registry twice against the
// same Registerer returns an AlreadyRegisteredError from the
// underlying client, which callers may safely ignore on process
// restart paths that reuse a registry.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.RunsStarted,
		r.RunsCompleted,
		r.SignaturesCollected,
		r.Skips,
		r.Aborts,
		r.DriverRetries,
		r.DriverFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
