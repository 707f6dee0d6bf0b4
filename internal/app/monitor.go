// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/relabs-tech/myahrs_driver/internal/convert"
	"github.com/relabs-tech/myahrs_driver/internal/metrics"
)

// StreamInterval is how often /ws pushes the latest message.
const StreamInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local monitoring page
	},
}

// LatestSource exposes the most recent converted messages.
type LatestSource interface {
	Latest() (convert.Messages, bool)
}

type monitor struct {
	src    LatestSource
	logger *zap.Logger
}

// NewMonitor serves the latest inertial message at /api/imu, a 10 Hz
// stream of it at /ws and the registry at /metrics.
func NewMonitor(src LatestSource, reg *prometheus.Registry, logger *zap.Logger) http.Handler {
	m := &monitor{src: src, logger: logger.Named("monitor")}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/imu", m.handleIMU)
	mux.HandleFunc("/ws", m.handleWS)
	mux.Handle("/metrics", metrics.Handler(reg))
	return mux
}

func (m *monitor) handleIMU(w http.ResponseWriter, r *http.Request) {
	latest, ok := m.src.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest.Imu); err != nil {
		m.logger.Warn("json encode error", zap.Error(err))
	}
}

func (m *monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain the client side so close frames are seen.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		latest, ok := m.src.Latest()
		if !ok {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteJSON(latest.Imu); err != nil {
			m.logger.Debug("websocket client gone", zap.Error(err))
			return
		}
	}
}
