package main

import (
	"context"
	"net"
	"os"
	"time"

	"aperture/internal/config"
	"aperture/internal/middleware"
	"aperture/internal/repository/memstore"
	"aperture/internal/server"
)

// Every fixture account shares this password.
const demoPassword = "password123"

// startDemo serves the demo dataset on a loopback port and returns its base URL.
func startDemo(ctx context.Context) (string, func(), error) {
	store, err := memstore.NewDemoStore()
	if err != nil {
		return "", nil, err
	}

	uploadDir, err := os.MkdirTemp("", "aperture-demo-*")
	if err != nil {
		return "", nil, err
	}

	cfg := &config.Config{
		Env:                  "development",
		JWTSecret:            "demo-secret",
		JWTTTLHours:          1,
		StoreDriver:          config.StoreMemory,
		UploadDir:            uploadDir,
		ImageMaxUploadSizeMB: 10,
	}
	srv := server.NewServerWithDeps(cfg, store, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = os.RemoveAll(uploadDir)
		return "", nil, err
	}

	// Keep the demo quiet on stdout.
	middleware.Logger = middleware.NewLogger("production", "error")
	go func() { _ = srv.Serve(ln) }()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = os.RemoveAll(uploadDir)
	}
	return "http://" + ln.Addr().String(), shutdown, nil
}
