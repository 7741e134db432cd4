package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/GoldenManBel/project-management-app/api"
	"github.com/GoldenManBel/project-management-app/storage"
	"github.com/GoldenManBel/project-management-app/subscription"
)

func newServeCmd() *cobra.Command {
	var (
		port  string
		debug bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workspaces over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(debug)
			return serve(cmd.Context(), port)
		},
	}
	cmd.Flags().StringVar(&port, "port", envOr("PORT", "8080"), "listen port")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func serve(ctx context.Context, port string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	remoteURL := os.Getenv("REMOTE_API_URL")
	if remoteURL == "" {
		log.Fatal("missing REMOTE_API_URL")
	}
	httpClient := &http.Client{Timeout: envDuration("REMOTE_API_TIMEOUT", 30*time.Second)}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warnf("tracer shutdown: %v", err)
		}
	}()

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	selections := selectionStore(connStr)

	hub := subscription.NewHub()
	notify := func(_ context.Context, n subscription.Notice) error {
		hub.Broadcast(n)
		return nil
	}
	var deduper api.Deduper
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(redisOptions(redisConn))
		defer rc.Close()

		selections = storage.NewCache(selections, rc, envDuration("SELECTION_CACHE_TTL", 10*time.Minute))
		deduper = api.NewRedisDeduper(rc, envDuration("DEDUPER_TTL", 24*time.Hour))

		channel := envOr("UPDATES_CHANNEL", "workspace-updates")
		pub := subscription.NewPublisher(rc, channel)
		notify = pub.Publish
		go subscription.SubscribeUpdates(ctx, echo.New().Logger, rc, channel, hub.Broadcast)
	} else {
		log.Warn("REDIS_CONNECTION_STRING not set; notices stay local and commands are not deduplicated")
	}

	var journal api.Journal
	if queue := os.Getenv("JOURNAL_QUEUE"); queue != "" {
		if connStr == "" {
			log.Fatal("JOURNAL_QUEUE requires STORAGE_CONNECTION_STRING")
		}
		j, err := storage.NewJournal(connStr, queue)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		journal = j
	}

	logger := log.StandardLogger()
	registry := api.NewRegistry(api.RegistryConfig{
		Remotes:    api.HTTPRemotes(remoteURL, httpClient),
		Selections: selections,
		Journal:    journal,
		Notify:     notify,
		Logger:     logger,
	})
	dispatcher := api.NewDispatcher(api.DispatcherConfigFromEnv(), logger)
	defer dispatcher.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	api.Register(e, api.Deps{
		Auth:       newAuth(),
		Workspaces: registry,
		Deduper:    deduper,
		Dispatcher: dispatcher,
		Listeners:  hub,
		Logger:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + port)
	}()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func selectionStore(connStr string) storage.Store {
	if table := os.Getenv("SELECTION_TABLE"); table != "" {
		if connStr == "" {
			log.Fatal("SELECTION_TABLE requires STORAGE_CONNECTION_STRING")
		}
		t, err := storage.NewTable(connStr, table)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return t
	}
	if path := os.Getenv("SELECTION_FILE"); path != "" {
		return storage.NewFile(path)
	}
	log.Warn("no selection store configured; selections are kept in memory")
	return storage.NewMemory()
}

func newAuth() *api.Auth {
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		secret := os.Getenv("TEST_JWT_SECRET")
		if secret == "" {
			log.Fatal("TEST_JWT_SECRET must be set when AUTH0_TEST_MODE=1")
		}
		return api.NewTestAuth([]byte(secret), os.Getenv("AUTH0_AUDIENCE"), "")
	}

	audience := os.Getenv("AUTH0_AUDIENCE")
	domain := os.Getenv("AUTH0_DOMAIN")
	if audience == "" || domain == "" {
		log.Fatal("missing Auth0 config")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		log.Fatalf("jwks: %v", err)
	}
	return api.NewAuth(jwks, audience, "https://"+domain+"/", envDuration("JWKS_CACHE_TTL", api.DefaultJWKSCacheTTL))
}
