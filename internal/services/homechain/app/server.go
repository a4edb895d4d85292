package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	platformgrpc "github.com/louisbranch/homechain/internal/platform/grpc"
	"github.com/louisbranch/homechain/internal/platform/ratelimit"
	"github.com/louisbranch/homechain/internal/platform/requestctx"
	"github.com/louisbranch/homechain/internal/platform/telemetry/metrics"
	"github.com/louisbranch/homechain/internal/platform/timeouts"
	"github.com/louisbranch/homechain/internal/services/homechain/api/grpc/transactions"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/workflow"
	"github.com/louisbranch/homechain/internal/services/homechain/eventbus"
	"github.com/louisbranch/homechain/internal/services/homechain/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config holds everything the server needs to start.
type Config struct {
	// Addr is the gRPC listen address, e.g. ":8090".
	Addr           string
	DBPath         string
	MetricsAddr    string
	RateLimitRPS   float64
	RateLimitBurst int
	AMQP           eventbus.AMQPConfig
	Relay          eventbus.RelayConfig
	Logger         *zap.Logger
}

// Server hosts the homechain registry.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	metricsSrv *http.Server
	store      *sqlite.Store
	bus        event.Bus
	relay      *eventbus.Relay
	logger     *zap.Logger
}

// New opens the store, connects the bus, and binds the listeners.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	bus, err := openBus(cfg.AMQP, logger)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}
	fail := func(err error) (*Server, error) {
		closeBus(bus, logger)
		_ = store.Close()
		_ = listener.Close()
		return nil, err
	}
	relay, err := eventbus.NewRelay(store, bus, cfg.Relay, logger)
	if err != nil {
		return fail(err)
	}

	m := metrics.New()
	processor, err := workflow.NewProcessor(store, bus,
		workflow.WithLogger(logger),
		workflow.WithObserver(m),
	)
	if err != nil {
		return fail(err)
	}
	service, err := transactions.NewService(processor, store)
	if err != nil {
		return fail(err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			requestctx.UnaryServerInterceptor(nil),
			m.UnaryServerInterceptor(),
			transactions.RateLimitInterceptor(ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 0), nil),
		),
	)
	transactions.RegisterTransactionServiceServer(grpcServer, service)
	healthServer := platformgrpc.NewHealthServer(transactions.ServiceName)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		bus:        bus,
		relay:      relay,
		logger:     logger,
	}
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		s.metricsSrv = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
		}
	}
	return s, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the gRPC server, the outbox relay, and the optional metrics
// endpoint until ctx ends or the gRPC server fails.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	relayCtx, stopRelay := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.relay.Run(relayCtx)
	}()
	defer func() {
		stopRelay()
		wg.Wait()
	}()

	if s.metricsSrv != nil {
		go func() {
			s.logger.Info("metrics listening", zap.String("addr", s.metricsSrv.Addr))
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("serve metrics", zap.Error(err))
			}
		}()
	}

	s.logger.Info("homechain server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		s.shutdown()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		s.shutdown()
		return handleErr(err)
	}
}

func (s *Server) shutdown() {
	platformgrpc.SetServing(s.health, false, transactions.ServiceName)
	if s.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.metricsSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown metrics", zap.Error(err))
		}
	}
	s.grpcServer.GracefulStop()
}

func (s *Server) close() {
	closeBus(s.bus, s.logger)
	if err := s.store.Close(); err != nil {
		s.logger.Warn("close store", zap.Error(err))
	}
}

func closeBus(bus event.Bus, logger *zap.Logger) {
	if closer, ok := bus.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("close event bus", zap.Error(err))
		}
	}
}

func openStore(path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "homechain.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

// openBus dials the broker when one is configured and otherwise falls back
// to an in-process bus that logs each event.
func openBus(cfg eventbus.AMQPConfig, logger *zap.Logger) (event.Bus, error) {
	if strings.TrimSpace(cfg.URL) != "" {
		pub, err := eventbus.DialAMQP(cfg, logger)
		if err != nil {
			return nil, err
		}
		return pub, nil
	}
	bus := eventbus.NewMemory()
	bus.Subscribe(func(_ context.Context, evt event.Event) error {
		logger.Info("event",
			zap.Uint64("seq", evt.Seq),
			zap.String("type", string(evt.Type)),
			zap.String("entity_type", evt.EntityType),
			zap.String("entity_id", evt.EntityID),
		)
		return nil
	})
	return bus, nil
}
