// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics exposes the scheduler's and file system's runtime
// behavior as github.com/prometheus/client_golang metrics, served over
// HTTP via promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kernellab/core/internal/core"
)

// Collector tracks queue depths, dispatch counts, aging promotions, free
// sectors, and file-system operation latencies. It implements
// scheduler.EventSink so the scheduler can report into it directly.
type Collector struct {
	queueDepth      *prometheus.GaugeVec
	dispatchesTotal prometheus.Counter
	agingPromotions prometheus.Counter
	freeSectors     prometheus.Gauge
	fsOpLatency     *prometheus.SummaryVec
}

// NewCollector registers a fresh set of metrics with the default
// Prometheus registry.
func NewCollector() *Collector {
	return &Collector{
		queueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kernel_ready_queue_depth",
			Help: "Current number of ready threads in each scheduler band.",
		}, []string{"band"}),
		dispatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kernel_dispatches_total",
			Help: "Total number of threads dispatched by the scheduler.",
		}),
		agingPromotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kernel_aging_promotions_total",
			Help: "Total number of times aging moved a thread to a higher band.",
		}),
		freeSectors: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_free_sectors",
			Help: "Current number of unallocated sectors on the simulated disk.",
		}),
		fsOpLatency: promauto.NewSummaryVec(prometheus.SummaryOpts{
			Name: "kernel_fs_op_latency_seconds",
			Help: "Latency of file system operations.",
		}, []string{"op"}),
	}
}

// Inserted implements scheduler.EventSink.
func (c *Collector) Inserted(tick core.Tick, id core.ThreadID, band core.Band) {
	c.queueDepth.WithLabelValues(band.String()).Inc()
}

// Removed implements scheduler.EventSink.
func (c *Collector) Removed(tick core.Tick, id core.ThreadID, band core.Band) {
	c.queueDepth.WithLabelValues(band.String()).Dec()
}

// PriorityChanged implements scheduler.EventSink.
func (c *Collector) PriorityChanged(tick core.Tick, id core.ThreadID, from, to core.Priority) {
	if core.BandOf(from) != core.BandOf(to) {
		c.agingPromotions.Inc()
	}
}

// Dispatched implements scheduler.EventSink.
func (c *Collector) Dispatched(tick core.Tick, nextID, prevID core.ThreadID, ticksExecuted int) {
	c.dispatchesTotal.Inc()
}

// SetFreeSectors records the free map's current clear-bit count.
func (c *Collector) SetFreeSectors(n int) {
	c.freeSectors.Set(float64(n))
}

// ObserveFSOp records how long a named file-system operation took.
func (c *Collector) ObserveFSOp(op string, seconds float64) {
	c.fsOpLatency.WithLabelValues(op).Observe(seconds)
}

// Serve exposes /metrics over HTTP on addr until the process exits or
// an error occurs. Used by `kernelctl serve`.
func Serve(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}
