package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/payment"
	"github.com/rcarvalho-pb/ipsim-go/internal/application/worker"
	"github.com/rcarvalho-pb/ipsim-go/internal/config"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/eventbus"
	httpapi "github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/persistence/sqlite"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulator API and its simulated checkout provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, a.cfg.Server, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

// simulator is the assembled server side: storage, the event pipeline
// that plays the checkout provider, and the HTTP API.
type simulator struct {
	handler    http.Handler
	service    *payment.Service
	dispatcher *outbox.Dispatcher
	scheduler  *worker.DelayScheduler
	db         *sql.DB

	stopDispatch context.CancelFunc
	dispatchDone chan struct{}
}

func newSimulator(cfg config.ServerConfig, logger logging.Logger) (*simulator, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	sim := &simulator{}

	var (
		txRepo     transaction.Repository
		outboxRepo outbox.Repository
	)
	if cfg.DatabasePath == "" {
		txRepo = inmemory.NewTransactionRepository()
		outboxRepo = outbox.NewMemoryRepository()
	} else {
		db, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := sqlite.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		sim.db = db
		txRepo = sqlite.NewTransactionRepository(db)
		outboxRepo = outbox.NewSQLiteRepository(db)
	}

	bus := eventbus.NewInMemoryBus()

	service := &payment.Service{
		Repo:            txRepo,
		EventBus:        bus,
		Logger:          logger,
		Metrics:         m,
		CheckoutBaseURL: cfg.CheckoutBaseURL,
	}

	scheduler := &worker.DelayScheduler{}

	settlement := &worker.SettlementProcessor{
		Recorder:       &outbox.Recorder{Repo: outboxRepo},
		Scheduler:      scheduler,
		Executor:       &worker.RandomPaymentExecutor{ApprovalRate: cfg.ApprovalRate},
		Logger:         logger,
		Metrics:        m,
		Delay:          cfg.SettleDelay,
		ReceiptBaseURL: cfg.ReceiptBaseURL,
	}

	webhookEventHandler := &payment.WebhookEventHandler{
		Service: service,
	}

	bus.Subscribe(event.TransactionCreated, settlement.Handle)
	bus.Subscribe(event.WebhookIssued, webhookEventHandler.Handle)

	sim.dispatcher = &outbox.Dispatcher{
		Repo:         outboxRepo,
		EventBus:     bus,
		Logger:       logger,
		Metrics:      m,
		PollInterval: cfg.DispatchInterval,
		BatchSize:    cfg.DispatchBatchSize,
	}

	sim.handler = httpapi.NewRouter(
		&httpapi.TransactionHandler{Service: service, Logger: logger},
		&httpapi.WebhookHandler{Service: service, Logger: logger},
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
	sim.service = service
	sim.scheduler = scheduler

	return sim, nil
}

// start runs the outbox dispatcher until Close.
func (s *simulator) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopDispatch = cancel
	s.dispatchDone = make(chan struct{})

	go func() {
		defer close(s.dispatchDone)
		s.dispatcher.Run(ctx)
	}()
}

// Close waits for running settlements and the dispatcher to finish before
// closing storage.
func (s *simulator) Close() error {
	s.scheduler.Stop()
	if s.stopDispatch != nil {
		s.stopDispatch()
		<-s.dispatchDone
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func runServer(ctx context.Context, cfg config.ServerConfig, logger logging.Logger) error {
	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}
	defer sim.Close()

	sim.start()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           sim.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server running", map[string]any{
			"addr":     cfg.Addr,
			"database": databaseLabel(cfg.DatabasePath),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("HTTP server shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func databaseLabel(path string) string {
	if path == "" {
		return "in-memory"
	}
	return path
}
