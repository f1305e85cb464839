// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refund-orchestration/internal/config"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
	providerAdapters "refund-orchestration/internal/infra/adapters/provider"
	walletAdapter "refund-orchestration/internal/infra/adapters/wallet"
	pg "refund-orchestration/internal/infra/db/postgres"
	"refund-orchestration/internal/infra/logging"
	"refund-orchestration/internal/infra/metrics"
	red "refund-orchestration/internal/infra/redis"
	"refund-orchestration/internal/infra/sched"
	"refund-orchestration/internal/infra/web"
	"refund-orchestration/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (noop provider adapters, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled, refunds settle against noop adapters")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	orderRepo := pg.NewOrderRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	refundRepo := pg.NewRefundRequestRepo(pool)
	walletRepo := pg.NewWalletRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Settlement adapters ----
	walletLedger := walletAdapter.NewLedgerAdapter(walletRepo, tm, logger)
	var external []adapter.ProviderAdapter
	if cfg.Runtime.Dev {
		external = []adapter.ProviderAdapter{
			providerAdapters.NewNoopAdapter(model.RailCardProcessor),
			providerAdapters.NewNoopAdapter(model.RailLocalNetworkSession),
			providerAdapters.NewNoopAdapter(model.RailLocalNetworkTokenized),
		}
	} else {
		external, err = buildProviderAdapters(cfg.Providers)
		if err != nil {
			log.Fatalf("providers: %v", err)
		}
	}

	router := usecase.NewProviderRouter(logger, append(external, walletLedger)...)

	// ---- Use cases ----
	ledger := usecase.NewRefundLedger(orderRepo, refundRepo, tm, logger)
	reconciler := usecase.NewOrderReconciler(orderRepo, refundRepo, tm, logger)
	orchestrator := usecase.NewRefundOrchestrator(ledger, router, paymentRepo, reconciler, locker, cfg.Providers.DispatchTimeout, logger)

	// ---- Repair worker ----
	repair := sched.NewRefundReconciler(reconciler, orderRepo, refundRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go repair.Start(ctx)

	// ---- HTTP ----
	metrics.MustRegister()
	guard := web.NewAccessGuard(cfg.Web.JWTSecret, cfg.Web.JWTTTL)
	server := web.NewServer(orchestrator, guard, logger)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Providers.DispatchTimeout + 15*time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Web.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

func buildProviderAdapters(cfg config.ProvidersConfig) ([]adapter.ProviderAdapter, error) {
	card, err := providerAdapters.NewCardProcessorAdapter(cfg.CardProcessor.BaseURL, cfg.CardProcessor.APIKey)
	if err != nil {
		return nil, err
	}
	ln := cfg.LocalNetwork
	session, err := providerAdapters.NewLocalNetworkSessionAdapter(ln.BaseURL, ln.CommerceCode, ln.APIKeyID, ln.APIKeySecret)
	if err != nil {
		return nil, err
	}
	tokenized, err := providerAdapters.NewLocalNetworkTokenizedAdapter(ln.BaseURL, ln.CommerceCode, ln.APIKeyID, ln.APIKeySecret)
	if err != nil {
		return nil, err
	}
	return []adapter.ProviderAdapter{card, session, tokenized}, nil
}
