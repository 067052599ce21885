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

	"golang.org/x/sync/errgroup"

	"agrifund/internal/approval"
	approvalhandler "agrifund/internal/approval/handler"
	approvalmetrics "agrifund/internal/approval/metrics"
	notifhandler "agrifund/internal/notification/handler"
	notifsvc "agrifund/internal/notification/service"
	notifstore "agrifund/internal/notification/store"
	"agrifund/internal/platform/config"
	"agrifund/internal/platform/httpserver"
	"agrifund/internal/platform/logger"
	"agrifund/internal/platform/metrics"
	"agrifund/internal/platform/postgres"
	platformredis "agrifund/internal/platform/redis"
	"agrifund/internal/registry/adapters"
	reghandler "agrifund/internal/registry/handler"
	regsvc "agrifund/internal/registry/service"
	regstore "agrifund/internal/registry/store"
	httptransport "agrifund/internal/transport/http"
	id "agrifund/pkg/domain"
	audit "agrifund/pkg/platform/audit"
	auditpub "agrifund/pkg/platform/audit/publisher"
)

// main wires configuration, stores, services, and the HTTP surface. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogFormat)

	notifStore, regStore, cleanup, err := buildStores(cfg, log)
	if err != nil {
		log.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpub.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, auditpub.WithLogger(log))
		if err != nil {
			log.Error("audit publisher initialization failed", "error", err)
			os.Exit(1)
		}
		publisher = kafka
		defer kafka.Close()
	}

	m := metrics.New()
	var registry *regsvc.Service
	feed := notifsvc.NewFeed(notifStore, tenantResolver{&registry},
		notifsvc.WithLogger(log),
		notifsvc.WithMetrics(m),
	)
	registry = regsvc.New(regStore, feed, regsvc.WithLogger(log))

	approvals := approval.New(
		notifStore,
		feed,
		approval.NewWinnerChecker(notifStore),
		adapters.NewStatusUpdater(registry),
		approval.WithLogger(log),
		approval.WithMetrics(approvalmetrics.New()),
		approval.WithAuditPublisher(publisher),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		AdminToken:    cfg.AdminToken,
		Notifications: notifhandler.New(feed, log),
		Approvals:     approvalhandler.New(approvals, feed, log),
		Registry:      reghandler.New(registry, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting agrifund portal", "addr", cfg.Addr, "store", string(cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildStores selects the configured backend for the notification log and
// the applicant registry. Applicant records only have memory and postgres
// variants; the redis backend keeps them in memory.
func buildStores(cfg config.Server, log *slog.Logger) (notifstore.Store, regstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.Postgres.DSN == "" {
			log.Warn("postgres backend selected but no DSN configured, using memory stores")
			return notifstore.NewInMemory(), regstore.NewInMemory(), func() {}, nil
		}
		db, err := postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return notifstore.NewPostgres(db), regstore.NewPostgres(db), func() { _ = db.Close() }, nil
	case config.BackendRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		if client == nil {
			log.Warn("redis backend selected but no URL configured, using memory stores")
			return notifstore.NewInMemory(), regstore.NewInMemory(), func() {}, nil
		}
		return notifstore.NewRedis(client.Client), regstore.NewInMemory(), func() { _ = client.Close() }, nil
	default:
		return notifstore.NewInMemory(), regstore.NewInMemory(), func() {}, nil
	}
}

// tenantResolver defers the feed to registry dependency until both services
// exist. The pointer is filled in before any request is served.
type tenantResolver struct {
	registry **regsvc.Service
}

func (t tenantResolver) ActiveRecord(ctx context.Context, role id.Role) (id.TenantID, bool, error) {
	return (*t.registry).ActiveRecord(ctx, role)
}
