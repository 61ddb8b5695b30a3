package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/config"
	"github.com/ariefcatur/go-petcare-checkout/internal/logx"
	"github.com/ariefcatur/go-petcare-checkout/internal/relay"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.ServiceName+"-relay", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	router := relay.NewRouter(relay.NewHandler(cfg.RelayUpstreamURL, log), cfg.CORSOrigin)
	srv := &http.Server{Addr: cfg.RelayAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("relay listening", zap.String("addr", cfg.RelayAddr), zap.String("origin", cfg.CORSOrigin))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down relay")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
