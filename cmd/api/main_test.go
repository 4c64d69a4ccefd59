package main

import (
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/handlers"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/server"
)

func newIdleServer() *server.HTTPServer {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{Environment: "test"}
	log := zerolog.Nop()
	return server.NewHTTPServer(cfg, log, handlers.NewHandlerSet(log, cfg, handlers.Services{}, nil), nil)
}

func TestWaitForShutdown(t *testing.T) {
	bindErr := errors.New("listen tcp :8080: bind: address already in use")

	tests := []struct {
		name     string
		serveErr error
	}{
		{"listener failure is returned", bindErr},
		{"clean stop", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errCh := make(chan error, 1)
			errCh <- tt.serveErr

			tracingStopped := false
			err := waitForShutdown(zerolog.Nop(), errCh, newIdleServer(), nil, &app{},
				func(context.Context) error {
					tracingStopped = true
					return nil
				})

			if !errors.Is(err, tt.serveErr) || (tt.serveErr == nil && err != nil) {
				t.Fatalf("waitForShutdown = %v, want %v", err, tt.serveErr)
			}
			if !tracingStopped {
				t.Fatal("tracing was not shut down")
			}
		})
	}
}
