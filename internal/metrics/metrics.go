/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics records matching runs as Prometheus metrics. The matcher is
// a batch tool, so metrics are exported to a node-exporter textfile instead
// of being scraped.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/llm-d-incubation/session-matcher/pkg/solver"
)

const namespace = "session_matcher"

// Recorder holds the collectors of one process. It is safe for concurrent
// use and satisfies the trial runner's Observer.
type Recorder struct {
	registry *prometheus.Registry

	trials        prometheus.Counter
	trialDuration prometheus.Histogram
	trialScore    prometheus.Histogram
	transitions   *prometheus.CounterVec

	bestScore      prometheus.Gauge
	unassigned     *prometheus.GaugeVec
	sessionFill    *prometheus.GaugeVec
	lastRunSeconds prometheus.Gauge
}

// NewRecorder registers the collectors on reg. A nil reg gets a fresh
// registry.
func NewRecorder(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Number of matching trials executed.",
		}),
		trialDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trial_duration_seconds",
			Help:      "Wall time of one matching trial.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		trialScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trial_score",
			Help:      "Weighted sum of unassigned grades per trial.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Matching loop transitions by kind, summed over trials.",
		}, []string{"kind"}),
		bestScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_score",
			Help:      "Score of the kept trial.",
		}),
		unassigned: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unassigned_students",
			Help:      "Unassigned students of the kept trial by grade.",
		}, []string{"grade"}),
		sessionFill: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_fill_ratio",
			Help:      "Filled seats over capacity per session in the kept trial.",
		}, []string{"session"}),
		lastRunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last outcome was recorded.",
		}),
	}

	for _, c := range []prometheus.Collector{
		r.trials, r.trialDuration, r.trialScore, r.transitions,
		r.bestScore, r.unassigned, r.sessionFill, r.lastRunSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return r, nil
}

// Registry returns the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveTrial records one finished trial.
func (r *Recorder) ObserveTrial(_ int, outcome *solver.Outcome, elapsed time.Duration) {
	r.trials.Inc()
	r.trialDuration.Observe(elapsed.Seconds())
	r.trialScore.Observe(float64(outcome.Score()))

	stats := outcome.Stats
	r.transitions.WithLabelValues("proposal").Add(float64(stats.Proposals))
	r.transitions.WithLabelValues("displacement").Add(float64(stats.Displacements))
	r.transitions.WithLabelValues("rejection").Add(float64(stats.Rejections))
	r.transitions.WithLabelValues("unknown_choice").Add(float64(stats.UnknownChoices))
	r.transitions.WithLabelValues("preseed").Add(float64(stats.Preseeded))
}

// ObserveOutcome records the kept trial, replacing the previous one.
func (r *Recorder) ObserveOutcome(outcome *solver.Outcome) {
	r.bestScore.Set(float64(outcome.Score()))

	r.unassigned.Reset()
	for _, st := range outcome.Unassigned() {
		r.unassigned.WithLabelValues(strconv.Itoa(st.Grade())).Inc()
	}

	r.sessionFill.Reset()
	for _, s := range outcome.Sessions() {
		r.sessionFill.WithLabelValues(s.Name()).Set(float64(s.Size()) / float64(s.Capacity()))
	}
	r.lastRunSeconds.SetToCurrentTime()
}

// WriteTextfile writes every collected metric to path in the text format
// read by the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
