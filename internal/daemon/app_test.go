// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/dronesim/internal/config"
)

type fakeRunner struct {
	err     error
	started atomic.Bool
	reports atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context) error {
	f.started.Store(true)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func (f *fakeRunner) ReportStatus() { f.reports.Add(1) }

type fakeCloser struct{ closed atomic.Bool }

func (c *fakeCloser) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeConfigSource struct {
	watchErr error
	watching atomic.Bool
	reloads  atomic.Int32
	listener chan chan<- config.AppConfig
}

func (f *fakeConfigSource) StartWatcher(context.Context) error {
	f.watching.Store(true)
	return f.watchErr
}

func (f *fakeConfigSource) RegisterListener(ch chan<- config.AppConfig) { f.listener <- ch }

func (f *fakeConfigSource) Reload(context.Context) error {
	f.reloads.Add(1)
	return nil
}

func TestApp_RequiresFleetAndTransport(t *testing.T) {
	logger := zerolog.New(io.Discard)
	assert.ErrorIs(t, NewApp(logger, nil, nil, &fakeCloser{}).Run(context.Background()), ErrMissingFleet)
	assert.ErrorIs(t, NewApp(logger, &fakeRunner{}, nil, nil).Run(context.Background()), ErrMissingTransport)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fleet, api, tr := &fakeRunner{}, &fakeRunner{}, &fakeCloser{}
	app := NewApp(zerolog.New(io.Discard), fleet, api, tr)
	app.statusSignal = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return fleet.started.Load() && api.started.Load() },
		time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, tr.closed.Load())
}

func TestApp_ComponentFailureStopsApp(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	boom := errors.New("boom")
	fleet, api, tr := &fakeRunner{}, &fakeRunner{err: boom}, &fakeCloser{}
	app := NewApp(zerolog.New(io.Discard), fleet, api, tr)
	app.statusSignal = nil

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, tr.closed.Load())
}

func TestApp_StatusSignal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fleet, tr := &fakeRunner{}, &fakeCloser{}
	app := NewApp(zerolog.New(io.Discard), fleet, nil, tr)
	registered := make(chan chan<- os.Signal, 1)
	app.notify = func(c chan<- os.Signal, _ ...os.Signal) { registered <- c }
	app.stopNotify = func(chan<- os.Signal) {}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	sigCh := <-registered
	sigCh <- syscall.SIGUSR1
	require.Eventually(t, func() bool { return fleet.reports.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestApp_ConfigReload(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &fakeConfigSource{watchErr: errors.New("no inotify"), listener: make(chan chan<- config.AppConfig, 1)}
	applied := make(chan config.AppConfig, 1)
	app := NewApp(zerolog.New(io.Discard), &fakeRunner{}, nil, &fakeCloser{}).
		WithConfigReload(src, func(cfg config.AppConfig) { applied <- cfg })
	app.statusSignal = nil
	hup := make(chan chan<- os.Signal, 1)
	app.notify = func(c chan<- os.Signal, _ ...os.Signal) { hup <- c }
	app.stopNotify = func(chan<- os.Signal) {}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	listener := <-src.listener
	assert.True(t, src.watching.Load(), "watcher failure is not fatal")
	listener <- config.AppConfig{LogLevel: "debug"}
	select {
	case cfg := <-applied:
		assert.Equal(t, "debug", cfg.LogLevel)
	case <-time.After(time.Second):
		t.Fatal("reloaded config was not applied")
	}

	sigCh := <-hup
	sigCh <- syscall.SIGHUP
	require.Eventually(t, func() bool { return src.reloads.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
