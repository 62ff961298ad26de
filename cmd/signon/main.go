// Command signon ships a keygen helper and a demo host application that
// signs users in against a HelloJohn accounts service.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	signon "github.com/dropDatabas3/signon"
	"github.com/dropDatabas3/signon/internal/config"
	"github.com/dropDatabas3/signon/internal/http/middlewares"
	"github.com/dropDatabas3/signon/internal/observability/logger"
	"github.com/dropDatabas3/signon/internal/observability/metrics"
	pgstore "github.com/dropDatabas3/signon/store/pg"
	redisstore "github.com/dropDatabas3/signon/store/redis"
)

var version = "dev"

func main() {
	var (
		envFile    string
		configPath string
	)

	root := &cobra.Command{
		Use:           "signon",
		Short:         "Sign in with HelloJohn - demo host and tooling",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				_ = godotenv.Load(envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a 32-byte base64 secret for the state codec",
		RunE: func(cmd *cobra.Command, args []string) error {
			var b [32]byte
			if _, err := rand.Read(b[:]); err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(b[:]))
			return nil
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo host application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	root.AddCommand(keygen, serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(configPath string) error {
	if configPath == "" {
		for _, candidate := range []string{"configs/config.yaml", "configs/config.example.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "signon-demo",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("serve")

	stateSecret, err := cfg.StateSecretBytes()
	if err != nil {
		return err
	}

	store, closeStore, err := buildCorrelationStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	handler, err := signon.New(signon.Options{
		ClientID:           cfg.Provider.ClientID,
		ClientSecret:       cfg.Provider.ClientSecret,
		StateSecret:        stateSecret,
		CallbackPath:       cfg.Provider.CallbackPath,
		Scopes:             cfg.Provider.Scopes,
		AppName:            cfg.Provider.AppName,
		AppLogoURL:         cfg.Provider.AppLogoURL,
		AccountsBaseURL:    cfg.Provider.AccountsBaseURL,
		APIBaseURL:         cfg.Provider.APIBaseURL,
		BackchannelTimeout: cfg.BackchannelTimeout(),
		CorrelationStore:   store,
		CorrelationTTL:     cfg.CorrelationTTL(),
		CookieSecure:       cfg.Provider.CookieSecure,
		SignIn:             sessions.SignIn,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(
		middlewares.WithRecover(),
		middlewares.WithRequestID(),
		middlewares.WithSecurityHeaders(),
		middlewares.WithLogging(),
		handler.Middleware,
	)
	registerRoutes(r, sessions)

	appSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("demo host listening", logger.String("addr", cfg.Server.Addr))
		if err := appSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Register(nil))
		metricsSrv = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("metrics listening", logger.String("addr", cfg.Server.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return appSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildCorrelationStore(cfg *config.Config) (signon.CorrelationStore, func(), error) {
	switch cfg.Correlation.Store {
	case "redis":
		s := redisstore.New(cfg.Correlation.Redis.Addr, cfg.Correlation.Redis.DB, cfg.Correlation.Redis.Prefix)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis correlation store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := pgstore.New(ctx, cfg.Correlation.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres correlation store: %w", err)
		}
		return s, s.Close, nil
	case "memory", "":
		return signon.NewMemoryCorrelationStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown correlation store %q", cfg.Correlation.Store)
	}
}
