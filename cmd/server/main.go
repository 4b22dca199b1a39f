package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"sealedger/internal/auditflow"
	"sealedger/internal/credibility"
	"sealedger/internal/events"
	"sealedger/internal/extraction/fields"
	"sealedger/internal/extraction/vision"
	"sealedger/internal/journal"
	jwttoken "sealedger/internal/jwt_token"
	"sealedger/internal/ledger"
	"sealedger/internal/pipeline"
	"sealedger/internal/platform/config"
	"sealedger/internal/platform/httpserver"
	"sealedger/internal/platform/logger"
	"sealedger/internal/platform/metrics"
	platformredis "sealedger/internal/platform/redis"
	httptransport "sealedger/internal/transport/http"
	"sealedger/internal/wallet"
	"sealedger/internal/workflow"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	ownerWallet, err := buildWallet(cfg.Ledger.OwnerKeyHex, cfg.Ledger.Bech32HRP)
	if err != nil {
		return err
	}
	auditorWallet, err := buildWallet(cfg.Ledger.AuditorKeyHex, cfg.Ledger.Bech32HRP)
	if err != nil {
		return err
	}
	log.Info("wallets ready", "owner", ownerWallet.Address(), "auditor", auditorWallet.Address())

	var compute ledger.ComputeClient
	contractAddress := cfg.Ledger.ContractAddress
	if cfg.Ledger.InMemory {
		if contractAddress == "" {
			contractAddress = "secret1sealedgerdev"
		}
		compute = ledger.NewMemoryLedger(contractAddress, cfg.Ledger.Bech32HRP, ownerWallet.Address())
		log.Info("using in-memory ledger", "contract", contractAddress)
	} else {
		compute = ledger.NewLCDClient(cfg.Ledger.LCDURL, contractAddress, cfg.Ledger.CodeHash, nil)
	}
	ownerGateway := ledger.New(compute, contractAddress, ownerWallet, log)
	auditorGateway := ledger.New(compute, contractAddress, auditorWallet, log)

	httpc := &http.Client{Timeout: cfg.Collaborators.Timeout}
	ocr := vision.NewClient(cfg.Collaborators.VisionURL, cfg.Collaborators.VisionAPIKey, cfg.Collaborators.VisionModel, httpc)
	fieldsClient := fields.NewClient(cfg.Collaborators.FieldsURL, httpc)
	scorer := credibility.NewClient(cfg.Collaborators.CredibilityURL, httpc)

	var journalStore journal.Store
	if cfg.PostgresDSN != "" {
		pg, err := journal.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		journalStore = pg
	} else {
		journalStore = journal.NewInMemoryStore()
	}

	cache, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}

	inbox := make(chan events.Event, 256)
	publisher := events.NewPublisher(inbox, log)
	sinks := []events.Store{events.NewInMemoryStore()}
	if cfg.KafkaBrokers != "" {
		kafkaSink, err := events.NewKafkaStore(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	worker := events.NewWorker(inbox, log, sinks...)

	pipe := pipeline.NewService(ocr, fieldsClient, log, m)
	wf := workflow.NewService(pipe, scorer, ownerGateway, journalStore, publisher, cfg.Ledger.ChainID, log, m)
	audit := auditflow.NewService(ownerGateway, auditorGateway, cache, publisher, cfg.Ledger.ChainID, cfg.Audit.AllowRedisposition, log, m)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "sealedger", "sealedger-api")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	handler := httptransport.NewHandler(wf, audit, validator, log, m)
	if cache != nil {
		handler.AddHealthCheck("redis", cache)
	}
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sealedger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildWallet loads a configured key or generates a throwaway development
// wallet when none is set.
func buildWallet(keyHex, hrp string) (wallet.Wallet, error) {
	if keyHex == "" {
		return wallet.GenerateLocal(hrp)
	}
	return wallet.NewLocal(keyHex, hrp)
}
