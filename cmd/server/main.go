package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"consult-scheduler/internal/app/bootstrap"
	"consult-scheduler/internal/auth"
	appconfig "consult-scheduler/internal/config"
	gweb "consult-scheduler/internal/grpcweb"
	"consult-scheduler/internal/handler"
	"consult-scheduler/internal/middleware"
	"consult-scheduler/internal/observability/metrics"
	"consult-scheduler/internal/rpc"
	"consult-scheduler/internal/scheduling"
	"consult-scheduler/internal/worker"
	"consult-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel).With("env", cfg.Env)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	rules, err := cfg.Rules()
	if err != nil {
		logger.Error("invalid scheduling rules", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage
	st, closeStore, err := bootstrap.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	mailer, err := bootstrap.BuildMailer(ctx, cfg, rules.Location, logger)
	if err != nil {
		logger.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	notifier := bootstrap.BuildNotifier(redisClient)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := scheduling.NewService(st, st, rules, logger).WithNotifier(notifier).WithMetrics(m)
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	h := handler.New(svc, st, tokens, mailer, logger).WithOTPTTL(cfg.OTPTTL)

	// background jobs
	reminder := worker.NewReminder(st, mailer, rules.ReminderLead(), logger).
		WithInterval(cfg.ReminderInterval).
		WithBatchSize(cfg.WorkerBatchSize).
		WithNotifier(notifier).
		WithMetrics(m)
	sweeper := worker.NewSweeper(st, mailer, rules.Retention(), logger).
		WithInterval(cfg.SweepInterval).
		WithNotifier(notifier).
		WithMetrics(m)
	go reminder.Run(ctx)
	go sweeper.Run(ctx)

	// grpc server
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rl.Run(ctx)
	srv := grpc.NewServer(
		rpc.ServerOption(),
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Auth(tokens),
		),
	)
	rpc.RegisterScheduleServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Error("listen failed", "port", cfg.Port, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("grpc listening", "port", cfg.Port)
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "error", err)
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.Port, logger)
	if err != nil {
		logger.Error("grpc-web bridge setup failed", "error", err)
		os.Exit(1)
	}
	defer bridge.Close()

	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: gweb.NewRouter(gweb.RouterConfig{
			Bridge:  bridge,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Health:  st,

			TrustProxy: cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http listening", "port", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	srv.GracefulStop()
}
