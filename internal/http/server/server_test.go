package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRunContextStopsOnCancel(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0", ShutdownTimeout: 2 * time.Second}, okHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("el servidor no drenó tras la señal")
	}
}

func TestRunContextReportsListenError(t *testing.T) {
	srv := New(Config{Addr: "256.256.256.256:99999"}, okHandler())

	err := srv.RunContext(context.Background())
	require.Error(t, err)
}
