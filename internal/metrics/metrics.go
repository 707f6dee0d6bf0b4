// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// DriverMetrics are the driver's own counters.
type DriverMetrics struct {
	SamplesReceived prometheus.Counter
	PublishErrors   *prometheus.CounterVec // labels: channel=imu|mag|tf
	Commands        *prometheus.CounterVec // labels: cmd, result=ok|error
}

// NewDriverMetrics registers and returns the driver metrics.
func NewDriverMetrics(reg prometheus.Registerer) *DriverMetrics {
	m := &DriverMetrics{
		SamplesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myahrs_samples_received_total",
			Help: "Samples delivered by the device.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myahrs_publish_errors_total",
			Help: "Failed publishes by output channel.",
		}, []string{"channel"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myahrs_commands_total",
			Help: "Device configuration commands by result.",
		}, []string{"cmd", "result"}),
	}
	reg.MustRegister(m.SamplesReceived, m.PublishErrors, m.Commands)
	return m
}
