// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	wsSendBuffer    = 4
	wsWriteDeadline = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// StatusServer serves the latest loop snapshot over HTTP: JSON, Prometheus
// gauges and a websocket stream.
type StatusServer struct {
	mu      sync.RWMutex
	last    Snapshot
	have    bool
	clients map[chan []byte]struct{}

	registry *prometheus.Registry
	readings *prometheus.GaugeVec
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewStatusServer returns a server with its own metrics registry.
func NewStatusServer(logger *slog.Logger) *StatusServer {
	s := &StatusServer{
		clients:  make(map[chan []byte]struct{}),
		registry: prometheus.NewRegistry(),
		readings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "enviro_reading",
			Help: "Latest Enviro+ reading by metric key.",
		}, []string{"metric"}),
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.registry.MustRegister(s.readings)

	s.mux.HandleFunc("/api/readings", s.handleReadings)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("/ws", s.handleWS)
	return s
}

func (s *StatusServer) Handler() http.Handler { return s.mux }

// Publish stores snap as the latest state, updates the gauges and fans it
// out to websocket clients. Slow clients drop frames.
func (s *StatusServer) Publish(snap Snapshot) {
	for key, v := range snap.Readings {
		if v == nil {
			s.readings.DeleteLabelValues(key)
			continue
		}
		s.readings.WithLabelValues(key).Set(*v)
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("snapshot marshal failed", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = snap
	s.have = true
	for ch := range s.clients {
		select {
		case ch <- msg:
		default:
			s.logger.Debug("websocket client behind, dropping snapshot")
		}
	}
}

func (s *StatusServer) handleReadings(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.last); err != nil {
		s.logger.Warn("json encode error", "err", err)
	}
}

// handleWS registers the client before upgrading so nothing published after
// the handshake is missed. The latest snapshot, if any, is sent first.
func (s *StatusServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ch := make(chan []byte, wsSendBuffer)
	s.mu.Lock()
	if s.have {
		if msg, err := json.Marshal(s.last); err == nil {
			ch <- msg
		}
	}
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, ch)
		s.mu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", "err", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("websocket write error", "err", err)
				return
			}
		}
	}
}

// ListenAndServe serves on port until ctx is cancelled.
func (s *StatusServer) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
