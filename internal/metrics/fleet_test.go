// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/dronesim/internal/metrics"
)

func TestIncShowReload(t *testing.T) {
	before := testutil.ToFloat64(metrics.ShowReloadsTotal.WithLabelValues("failure"))
	metrics.IncShowReload(false)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ShowReloadsTotal.WithLabelValues("failure")))
}

func TestIncFrameSent(t *testing.T) {
	metrics.IncFrameSent("heartbeat", nil)
	metrics.IncFrameSent("heartbeat", errors.New("no peer"))

	var m dto.Metric
	require.NoError(t, metrics.FramesSentTotal.WithLabelValues("heartbeat", "failure").Write(&m))
	assert.GreaterOrEqual(t, m.GetCounter().GetValue(), 1.0)
}

func TestIncFrameIgnored_EmptyReason(t *testing.T) {
	before := testutil.ToFloat64(metrics.FramesIgnoredTotal.WithLabelValues("unknown"))
	metrics.IncFrameIgnored("")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FramesIgnoredTotal.WithLabelValues("unknown")))
}

func TestPromhttpExposure(t *testing.T) {
	metrics.SetDronesWithShow(3)
	metrics.AddTransferBytes(128)

	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "dronesim_drones_with_show 3"))
	assert.Contains(t, string(body), "dronesim_transfer_bytes_total")
}
