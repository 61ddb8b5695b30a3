package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/admin"
	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/checkout"
	"github.com/ariefcatur/go-petcare-checkout/internal/config"
	"github.com/ariefcatur/go-petcare-checkout/internal/httpx"
	kafkax "github.com/ariefcatur/go-petcare-checkout/internal/kafka"
	"github.com/ariefcatur/go-petcare-checkout/internal/logx"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/postgres"
	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{
		MaxConns:    int32(cfg.PostgresMaxConns),
		Application: cfg.ServiceName,
	})
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)
	events := &orders.Emitter{P: prod, Producer: cfg.ServiceName}

	// Repos
	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	apptRepo := &appointments.Repo{DB: db}
	userRepo := &users.Repo{DB: db}
	profiles := &users.CachedRepo{Store: userRepo, Redis: rdb}
	carts := &cart.RedisRepository{Redis: rdb}

	// Payment sessions
	sessions := payment.NewSessions(payment.NewFeedClient(cfg.PaymentFeedURL), payment.SessionConfig{
		Account:  cfg.BankAccountNo,
		Interval: cfg.PaymentPollInterval,
		Timeout:  cfg.PaymentPollTimeout,
	}, log)

	svc := &checkout.Service{
		Profiles: profiles,
		Carts:    carts,
		Foods:    catalogRepo,
		Orders:   orderRepo,
		Materializer: &checkout.Materializer{
			Orders:       orderRepo,
			Appointments: apptRepo,
			Carts:        carts,
			Events:       events,
			Log:          log,
		},
		References: &payment.Generator{Bank: payment.Bank{
			BankID:      cfg.BankID,
			AccountNo:   cfg.BankAccountNo,
			AccountName: cfg.BankAccountName,
			Template:    cfg.QRTemplate,
			ImageBase:   cfg.QRImageBase,
		}},
		Payments: sessions,
		Events:   events,
		Log:      log,
	}

	// Handlers
	secret := []byte(cfg.JWTSecret)
	router := httpx.NewRouter(log)
	(&httpx.StoreHandler{
		Catalog:  catalogRepo,
		Profiles: profiles,
		Cart:     &cart.Store{Repo: carts},
		Checkout: svc,
		Payments: sessions,
		Orders:   orderRepo,
		Redis:    rdb,
		Limiter:  httpx.NewLimiter(cfg.CheckoutRatePerMin),
		Log:      log,
	}).Register(router, secret)
	(&httpx.AdminHandler{
		Console: &admin.Console{
			Users:        userRepo,
			ProfileCache: profiles,
			Orders:       orderRepo,
			Appointments: apptRepo,
			Catalog:      catalogRepo,
			Employees:    &users.EmployeeRepo{DB: db},
			Events:       events,
			Log:          log,
		},
		Log: log,
	}).Register(router, secret)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if err := sessions.Shutdown(ctx2); err != nil {
		log.Warn("payment sessions still running", zap.Int("active", sessions.Active()), zap.Error(err))
	}
	// late done callbacks now get ErrProducerClosed from Emit and log it
	prod.Close()      // close inbox -> flush & close writer
	prod.WaitClosed() // drain
	cancel()
}
