package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-petcare-checkout/internal/config"
	kafkax "github.com/ariefcatur/go-petcare-checkout/internal/kafka"
	"github.com/ariefcatur/go-petcare-checkout/internal/logx"
	"github.com/ariefcatur/go-petcare-checkout/internal/notifier"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-notifier"

	log, err := logx.New(name, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &notifier.Service{
		Redis:       rdb,
		Sender:      notifier.LogSender{Log: log},
		Log:         log,
		ServiceName: name,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.AllTopics, cfg.NotifierWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("notifier consumer started", zap.String("group", cfg.NotifierGroup),
			zap.Strings("topics", orders.AllTopics), zap.Int("workers", cfg.NotifierWorkers))
		if err := cons.Start(ctx, svc.HandleMessage); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done
}
