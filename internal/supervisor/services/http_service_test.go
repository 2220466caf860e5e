// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeServer scripts the HTTPServer lifecycle.
type fakeServer struct {
	listenErr   error
	shutdownErr error

	release      chan struct{}
	shutdownSeen chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		release:      make(chan struct{}),
		shutdownSeen: make(chan struct{}, 1),
	}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.release
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdownSeen <- struct{}{}
	close(f.release)
	return f.shutdownErr
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService("ops-http", srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()

	select {
	case <-srv.shutdownSeen:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown was not called")
	}
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("address in use")
	svc := NewHTTPServerService("ops-http", srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerService_String(t *testing.T) {
	if got := NewHTTPServerService("ops-http", newFakeServer(), 0).String(); got != "ops-http" {
		t.Errorf("String = %q", got)
	}
	if got := NewHTTPServerService("", newFakeServer(), 0).String(); got != "http-server" {
		t.Errorf("default name = %q", got)
	}
}
