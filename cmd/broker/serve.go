package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth-broker/broker"
	"github.com/jrsteele09/go-oauth-broker/exchange"
	"github.com/jrsteele09/go-oauth-broker/flowstate"
	"github.com/jrsteele09/go-oauth-broker/flowstate/sqlitestore"
	"github.com/jrsteele09/go-oauth-broker/flowstate/valkeystore"
	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/internal/logging"
	"github.com/jrsteele09/go-oauth-broker/providers"
	"github.com/jrsteele09/go-oauth-broker/server"
	"github.com/jrsteele09/go-oauth-broker/tokensink"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	janitorInterval   = time.Minute
	shutdownTimeout   = 5 * time.Second
	discoveryTimeout  = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the broker HTTP server",
		Long: `Run the broker HTTP server. All settings come from the environment,
see the README for the variables and their defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()
	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	registry, err := loadRegistry(ctx, c)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	sink := tokensink.NewHTTPSink(c.GetBackendURL(),
		tokensink.WithTimeout(c.GetSinkTimeout()),
		tokensink.WithMaxAttempts(c.GetSinkMaxAttempts()),
	)
	svc, err := broker.New(broker.Dependencies{
		Registry:  registry,
		Store:     store,
		Exchanger: exchange.New(exchange.WithTimeout(c.GetExchangeTimeout())),
		Sink:      sink,
	}, broker.Settings{
		CallbackURL:           c.GetCallbackURL(),
		LandingURL:            c.GetLandingURL(),
		FlowTTL:               c.GetFlowTTL(),
		VerifierLength:        c.GetVerifierLength(),
		AllowEndpointOverride: c.GetAllowEndpointOverride(),
	})
	if err != nil {
		return err
	}

	handler, err := server.New(c, svc, sink)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cleaner, ok := store.(flowstate.Cleaner); ok {
		go flowstate.RunJanitor(ctx, cleaner, janitorInterval,
			func(err error) { log.Warn().Err(err).Msg("flow state cleanup failed") },
			func(n int) { log.Debug().Int("purged", n).Msg("expired flow states removed") },
		)
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	stop := stopSignal()
	defer signal.Stop(stop)
	select {
	case err := <-serveErr:
		return err
	case <-stop:
	case <-ctx.Done():
	}
	return shutdown(srv)
}

// loadRegistry applies the providers file and, when enabled, OIDC discovery
// to the built-in profiles.
func loadRegistry(ctx context.Context, c config.Config) (*providers.Registry, error) {
	registry := providers.Default()

	if path := c.GetProvidersFile(); path != "" {
		overrides, err := providers.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if registry, err = registry.With(overrides...); err != nil {
			return nil, err
		}
		log.Info().Str("file", path).Int("overrides", len(overrides)).Msg("provider overrides loaded")
	}

	if c.GetOIDCDiscovery() {
		ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		defer cancel()
		var err error
		if registry, err = providers.Discover(ctx, registry, &http.Client{Timeout: discoveryTimeout}); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// openStore returns the configured flow state store and a function releasing it.
func openStore(c config.Config) (flowstate.Store, func(), error) {
	if c.GetStoreDriver() == config.StoreDriverMemory {
		return flowstate.NewInMemoryStore(), func() {}, nil
	}

	sealer, err := flowstate.NewSealer(c.GetEncryptionKey())
	if err != nil {
		return nil, nil, err
	}
	codec := flowstate.NewCodec(sealer)

	switch c.GetStoreDriver() {
	case config.StoreDriverSQLite:
		store, err := sqlitestore.Open(c.GetSQLitePath(), codec)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", c.GetSQLitePath()).Msg("using sqlite flow store")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("closing sqlite flow store")
			}
		}, nil
	case config.StoreDriverValkey:
		store, err := valkeystore.Open(c.GetValkeyAddr(), codec)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", c.GetValkeyAddr()).Msg("using valkey flow store")
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("[openStore] unknown store driver %q", c.GetStoreDriver())
	}
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func stopSignal() chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
