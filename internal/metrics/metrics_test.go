// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverMetricsExposed(t *testing.T) {
	reg := NewRegistry()
	m := NewDriverMetrics(reg)

	m.SamplesReceived.Add(3)
	m.PublishErrors.WithLabelValues("mag").Inc()
	m.Commands.WithLabelValues("mode", "ok").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SamplesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors.WithLabelValues("mag")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "myahrs_samples_received_total 3")
	assert.Contains(t, rec.Body.String(), `myahrs_commands_total{cmd="mode",result="ok"} 1`)
}
