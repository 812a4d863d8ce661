/*
 * Copyright 2025 The Cascade Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics collects prometheus instrumentation for connection queue
// depth and node invocations. Nothing in this package starts an HTTP
// exporter — that belongs to the control surface this runtime deliberately
// leaves out — but Registry exposes the underlying registry as a
// prometheus.Gatherer so a caller's own HTTP layer can serve it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bittoy/cascade/types"
)

// Collectors holds every prometheus vector the engine updates. A zero value
// is not usable; build one with New.
type Collectors struct {
	registry *prometheus.Registry

	connectionDepth *prometheus.GaugeVec
	nodeInvocations *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
	nodeStarts      *prometheus.CounterVec
	nodeStops       *prometheus.CounterVec
}

// New builds a fresh Collectors registered against its own private
// prometheus.Registry (never the global DefaultRegisterer, so multiple
// Controllers in one process, e.g. in tests, never collide on metric
// names).
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		connectionDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cascade",
			Subsystem: "connection",
			Name:      "depth",
			Help:      "Current number of buffered items on a connection.",
		}, []string{"connection_id", "name"}),
		nodeInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "node",
			Name:      "invocations_total",
			Help:      "Total component.Process invocations, by outcome.",
		}, []string{"node_id", "type_name", "outcome"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cascade",
			Subsystem: "node",
			Name:      "process_duration_seconds",
			Help:      "component.Process call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_id", "type_name"}),
		nodeStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "node",
			Name:      "starts_total",
			Help:      "Total node start events.",
		}, []string{"node_id", "type_name"}),
		nodeStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "node",
			Name:      "stops_total",
			Help:      "Total node stop events.",
		}, []string{"node_id", "type_name"}),
	}
	reg.MustRegister(c.connectionDepth, c.nodeInvocations, c.nodeDuration, c.nodeStarts, c.nodeStops)
	return c
}

// Registry exposes the prometheus registry backing c as a
// prometheus.Gatherer, so an embedding
// process's own HTTP layer can serve it under /metrics.
func (c *Collectors) Registry() prometheus.Gatherer { return c.registry }

// ConnectionDepth implements types.MetricsRecorder.
func (c *Collectors) ConnectionDepth(connectionID, name string, depth int) {
	c.connectionDepth.WithLabelValues(connectionID, name).Set(float64(depth))
}

// NodeInvocation implements types.MetricsRecorder.
func (c *Collectors) NodeInvocation(nodeID, typeName string, ok bool, durationSeconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.nodeInvocations.WithLabelValues(nodeID, typeName, outcome).Inc()
	c.nodeDuration.WithLabelValues(nodeID, typeName).Observe(durationSeconds)
}

// NodeStarted implements types.MetricsRecorder.
func (c *Collectors) NodeStarted(nodeID, typeName string) {
	c.nodeStarts.WithLabelValues(nodeID, typeName).Inc()
}

// NodeStopped implements types.MetricsRecorder.
func (c *Collectors) NodeStopped(nodeID, typeName string) {
	c.nodeStops.WithLabelValues(nodeID, typeName).Inc()
}

var _ types.MetricsRecorder = (*Collectors)(nil)
