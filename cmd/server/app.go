package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/activity"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/notification"
	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/workflow"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/config"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/eventbus"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/gateway/mercadopago"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/gateway/stripe"
	httpapi "github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/idempotency"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/messaging/kafka"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/messaging/sns"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/persistence/postgres"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/persistence/sqlite"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/temporal"
)

const webhookDedupeTTL = 24 * time.Hour

type app struct {
	cfg     *config.Config
	logger  *logging.ZapLogger
	metrics *metrics.Counters

	ledger     payment.Repository
	outboxRepo outbox.Repository
	closers    []func() error
}

func newApp(cfg *config.Config, logger *logging.ZapLogger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: &metrics.Counters{}}
	if err := a.openStorage(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStorage() error {
	switch a.cfg.LedgerDriver {
	case "memory":
		a.ledger = inmemory.NewPaymentRepository()
		a.outboxRepo = outbox.NewMemoryRepository()

	case "sqlite":
		db, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		if err := sqlite.RunMigrations(db); err != nil {
			return err
		}
		a.ledger = sqlite.NewPaymentRepository(db)
		a.outboxRepo = outbox.NewSQLiteRepository(db)

	case "postgres":
		gdb, err := postgres.Open(a.cfg.PostgresDSN)
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		if err := postgres.AutoMigrate(gdb); err != nil {
			return err
		}
		repo := outbox.NewGormRepository(gdb)
		if err := repo.Migrate(); err != nil {
			return err
		}
		a.ledger = postgres.NewGormPaymentRepo(gdb)
		a.outboxRepo = repo

	default:
		return fmt.Errorf("unknown ledger driver %q", a.cfg.LedgerDriver)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", map[string]any{"error": err})
		}
	}
}

func (a *app) dialTemporal() (*temporal.Client, error) {
	c, err := temporal.Dial(temporal.Options{
		HostPort:  a.cfg.TemporalAddress,
		Namespace: a.cfg.TemporalNamespace,
		TaskQueue: a.cfg.TemporalTaskQueue,
	}, logging.NewTemporalAdapter(a.logger))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { c.Close(); return nil })
	return c, nil
}

func (a *app) gateway() (contracts.Gateway, *mercadopago.Client, *stripe.Gateway) {
	if a.cfg.GatewayProvider == "stripe" {
		g := stripe.NewGateway(a.cfg.StripeAPIKey, a.cfg.StripeWebhookSecret, strings.TrimRight(a.cfg.WebhookBaseURL, "/"))
		return g, nil, g
	}

	if a.cfg.MercadoPagoAccessToken == "" {
		a.logger.Warn("MERCADO_PAGO_ACCESS_TOKEN not configured", nil)
	}
	mp := mercadopago.NewClient(a.cfg.MercadoPagoBaseURL, a.cfg.MercadoPagoAccessToken, a.cfg.WebhookBaseURL)
	return mp, mp, nil
}

func (a *app) activities() *activity.Activities {
	gw, _, _ := a.gateway()
	return &activity.Activities{
		Ledger:   a.ledger,
		Gateway:  gw,
		Recorder: &outbox.Recorder{Repo: a.outboxRepo},
		Logger:   a.logger,
	}
}

func (a *app) publisher(ctx context.Context) (notification.Publisher, error) {
	switch a.cfg.Notifier {
	case "kafka":
		p := kafka.NewPublisher(a.cfg.Brokers(), a.cfg.KafkaTopic)
		a.closers = append(a.closers, p.Close)
		return p, nil
	case "sns":
		p, err := sns.NewPublisher(ctx, a.cfg.SNSTopicARN)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return &notification.LogPublisher{Logger: a.logger}, nil
	}
}

// dispatcher wires the outbox to the bus and the bus to the notifier.
func (a *app) dispatcher(ctx context.Context) (*outbox.Dispatcher, error) {
	pub, err := a.publisher(ctx)
	if err != nil {
		return nil, err
	}

	handler := &notification.Handler{Publisher: pub, Metrics: a.metrics, Logger: a.logger}
	bus := eventbus.NewInMemoryBus()
	bus.Subscribe(event.PaymentStatusNotified, handler.Handle)
	bus.Subscribe(event.PaymentStatusReceived, handler.Handle)

	return &outbox.Dispatcher{
		Repo:         a.outboxRepo,
		EventBus:     bus,
		Logger:       a.logger,
		PollInterval: a.cfg.OutboxPollInterval,
		BatchSize:    50,
	}, nil
}

func (a *app) deduper() contracts.Deduper {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	a.closers = append(a.closers, rdb.Close)
	return idempotency.NewStore(rdb, webhookDedupeTTL)
}

func (a *app) router(orch *temporal.Client) httpapi.RouterDeps {
	_, mp, st := a.gateway()

	precedence := workflow.PrecedenceCancel
	if a.cfg.SettlementWins {
		precedence = workflow.PrecedenceSettlement
	}

	svc := &appPayment.Service{
		Repo: a.ledger,
		Bridge: &appPayment.Bridge{
			Orchestrator: orch,
			Ledger:       a.ledger,
			Logger:       a.logger,
			GracePeriod:  a.cfg.BridgeGracePeriod,
			Backoff:      appPayment.DefaultPollBackoff,
		},
		Orchestrator: orch,
		Recorder:     &outbox.Recorder{Repo: a.outboxRepo},
		Metrics:      a.metrics,
		Logger:       a.logger,
		Precedence:   precedence,

		ConfirmationWindow: a.cfg.ConfirmationWindow,
	}
	if d := a.deduper(); d != nil {
		svc.Dedupe = d
	}

	webhooks := &httpapi.WebhookHandler{Service: svc, Logger: a.logger.Zap()}
	if mp != nil {
		webhooks.MercadoPago = mp
	}
	if st != nil {
		webhooks.Stripe = st
	}

	deps := httpapi.RouterDeps{
		Payments: &httpapi.PaymentHandler{Service: svc},
		Webhooks: webhooks,
		Metrics:  a.metrics,
		Logger:   a.logger.Zap(),
	}
	if a.cfg.RateLimitRPS > 0 {
		deps.Limiter = httpapi.NewRateLimiter(rate.Limit(a.cfg.RateLimitRPS), int(a.cfg.RateLimitRPS)*2+1)
	}
	return deps
}

func newRouter(a *app, orch *temporal.Client) *gin.Engine {
	return httpapi.NewRouter(a.router(orch))
}
