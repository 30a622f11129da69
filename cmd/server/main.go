package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"zolo-auth/internal/audit"
	authhandler "zolo-auth/internal/auth/handler"
	authservice "zolo-auth/internal/auth/service"
	"zolo-auth/internal/auth/store/lockout"
	"zolo-auth/internal/auth/store/revocation"
	"zolo-auth/internal/auth/store/user"
	"zolo-auth/internal/auth/token"
	contacthandler "zolo-auth/internal/contact/handler"
	contactservice "zolo-auth/internal/contact/service"
	contactstore "zolo-auth/internal/contact/store"
	"zolo-auth/internal/platform/config"
	"zolo-auth/internal/platform/email"
	"zolo-auth/internal/platform/httpserver"
	"zolo-auth/internal/platform/logger"
	"zolo-auth/internal/platform/metrics"
	"zolo-auth/internal/platform/middleware"
	platformredis "zolo-auth/internal/platform/redis"
	"zolo-auth/internal/transport/http/shared"
)

// main wires dependencies from config and keeps the server lifecycle small.
// Business logic lives in the internal services.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "zolo-auth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New()
	m := metrics.New()

	// Stores: Postgres when configured, in-memory otherwise. The in-memory
	// stores are non-durable and reset on restart.
	var (
		db       *sql.DB
		users    user.Store
		lockouts lockout.Store
		contacts contactstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		userStore := user.NewPostgres(db)
		if err := userStore.EnsureSchema(ctx); err != nil {
			return err
		}
		lockoutStore := lockout.NewPostgres(db)
		if err := lockoutStore.EnsureSchema(ctx); err != nil {
			return err
		}
		contactStore := contactstore.NewPostgres(db)
		if err := contactStore.EnsureSchema(ctx); err != nil {
			return err
		}

		users, lockouts, contacts = userStore, lockoutStore, contactStore
	} else {
		log.Warn("no database configured, using non-durable in-memory stores")
		users, lockouts, contacts = user.NewMemory(), lockout.NewMemory(), contactstore.NewMemory()
	}

	// Token revocation: Redis when configured, in-memory otherwise.
	var revList revocation.List
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revList = revocation.NewRedis(redisClient.Client)
		log.Info("token revocation backed by redis")
	} else {
		revList = revocation.NewMemory()
	}

	// Audit: Kafka sink when brokers are configured, in-memory otherwise.
	var auditSink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
		log.Info("audit events published to kafka", "topic", cfg.Kafka.Topic)
	} else {
		auditSink = audit.NewMemoryStore()
	}
	auditor := audit.NewPublisher(auditSink, log)
	defer auditor.Close()

	var mailSender email.Sender = email.NopSender{}
	if smtp := email.NewSMTP(cfg.SMTP); smtp != nil {
		mailSender = smtp
		log.Info("transactional email enabled", "host", cfg.SMTP.Host)
	}

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL, token.WithRevocationList(revList))
	verifier := token.NewMiddlewareAdapter(tokens)

	authSvc := authservice.New(
		users, lockouts, revList, tokens, cfg.Lockout, log,
		authservice.WithEmailSender(mailSender, cfg.SMTP.BaseURL),
		authservice.WithAuditPublisher(auditor),
		authservice.WithMetrics(m),
	)
	contactSvc := contactservice.New(
		contacts, log,
		contactservice.WithNotification(mailSender, cfg.SMTP.FromAddress),
		contactservice.WithAuditPublisher(auditor),
		contactservice.WithMetrics(m),
	)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(m))

	// Liveness probe used by clients to tell "backend down" apart from
	// "bad credentials".
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "zolo-auth"})
	})
	// Readiness covers the backing stores; liveness stays dependency-free.
	router.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "reason": "database"})
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "reason": "redis"})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	router.Handle("/metrics", promhttp.Handler())

	authhandler.New(authSvc, verifier, log).Register(router)
	contacthandler.New(contactSvc, verifier, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting zolo-auth", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
