package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/example/ticket-queue/internal/application"
	"github.com/example/ticket-queue/internal/config"
	httptransport "github.com/example/ticket-queue/internal/http"
	"github.com/example/ticket-queue/internal/logging"
	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/persistence/memory"
	"github.com/example/ticket-queue/internal/persistence/sqlite"
	"github.com/example/ticket-queue/internal/telemetry"
)

const serviceName = "queued"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("queued exited", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configFile  string
	envFile     string
	port        int
	showVersion bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flags.SetOutput(out)
	flags.StringVar(&opts.configFile, "config", "", "path to a YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", "", "path to a dotenv file (default .env when present)")
	flags.IntVar(&opts.port, "port", 0, "HTTP port, overrides "+config.EnvHTTPPort)
	flags.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.port < 0 || opts.port > 65535 {
		return options{}, fmt.Errorf("invalid --port %d", opts.port)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.showVersion {
		_, err := fmt.Fprintf(stdout, "%s %s\n", serviceName, version)
		return err
	}

	cfg, err := config.Load(config.Options{ConfigFile: opts.configFile, EnvFile: opts.envFile})
	if err != nil {
		return err
	}
	if opts.port != 0 {
		cfg.HTTPPort = opts.port
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.WarnContext(ctx, "tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	svc := application.NewQueueService(application.QueueServiceDeps{
		Store:          store,
		Now:            time.Now,
		Location:       cfg.Location,
		SnapshotWindow: cfg.SnapshotWindow,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
		Handler:           newHandler(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	logger.InfoContext(ctx, "queue API listening",
		"addr", listener.Addr().String(),
		"storage", cfg.Storage,
		"timezone", cfg.Timezone,
		"version", version,
	)
	return serve(ctx, server, listener, cfg.ShutdownTimeout, logger)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.QueueStore, error) {
	if cfg.Storage == config.StorageMemory {
		logger.WarnContext(ctx, "using in-memory storage; tickets are lost on restart")
		return memory.New(), nil
	}

	sqliteCfg := sqlite.DefaultConfig(cfg.SQLitePath)
	sqliteCfg.BusyTimeout = cfg.SQLiteBusyTimeout

	store, err := sqlite.Open(sqliteCfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx, logger); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

func newHandler(svc *application.QueueService, logger *slog.Logger) http.Handler {
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Queue: httptransport.NewQueueHandler(svc, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recover(logger),
		},
	})
	return otelhttp.NewHandler(router, serviceName)
}

// serve runs server on listener until ctx is cancelled, then drains it within timeout.
func serve(ctx context.Context, server *http.Server, listener net.Listener, timeout time.Duration, logger *slog.Logger) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down", "timeout", timeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return group.Wait()
}
