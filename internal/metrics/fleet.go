// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesReceivedTotal counts inbound frames by kind.
	FramesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dronesim_frames_received_total",
		Help: "Total number of inbound frames by kind",
	}, []string{"kind"})

	// FramesIgnoredTotal counts inbound frames that were dropped without effect.
	FramesIgnoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dronesim_frames_ignored_total",
		Help: "Total number of inbound frames ignored by reason",
	}, []string{"reason"})

	// FramesSentTotal counts outbound frames by kind and result.
	FramesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dronesim_frames_sent_total",
		Help: "Total number of outbound frames by kind and result",
	}, []string{"kind", "result"})

	// ShowReloadsTotal counts show decode attempts.
	ShowReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dronesim_show_reloads_total",
		Help: "Total number of show reload attempts by result",
	}, []string{"result"})

	// TransferBytesTotal counts bytes accepted by file transfer writes.
	TransferBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dronesim_transfer_bytes_total",
		Help: "Total number of show bytes written through file transfer",
	})

	// DronesWithShow is the number of sessions with an installed program.
	DronesWithShow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dronesim_drones_with_show",
		Help: "Number of drones with a decoded show installed",
	})

	// CadenceDuration tracks how long one pass of an outbound loop takes.
	CadenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dronesim_cadence_duration_seconds",
		Help:    "Duration of one full pass over the fleet by an outbound loop",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"loop"})
)

// IncFrameReceived records an inbound frame.
func IncFrameReceived(kind string) {
	FramesReceivedTotal.WithLabelValues(kind).Inc()
}

// IncFrameIgnored records an inbound frame dropped for reason.
func IncFrameIgnored(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	FramesIgnoredTotal.WithLabelValues(reason).Inc()
}

// IncFrameSent records an outbound frame attempt.
func IncFrameSent(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	FramesSentTotal.WithLabelValues(kind, result).Inc()
}

// IncShowReload records a reload outcome.
func IncShowReload(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	ShowReloadsTotal.WithLabelValues(result).Inc()
}

// AddTransferBytes records bytes accepted by a write.
func AddTransferBytes(n int) {
	TransferBytesTotal.Add(float64(n))
}

// SetDronesWithShow publishes the number of loaded drones.
func SetDronesWithShow(n int) {
	DronesWithShow.Set(float64(n))
}
