package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/jobs"
	"github.com/geocoder89/taskhub/internal/notifications"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/queue/redisclient"
	"github.com/geocoder89/taskhub/internal/queue/worker"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/scheduler"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

type userBackend interface {
	service.UserStore
	scheduler.ResetTokenPurger
}

type jobsBackend interface {
	handlers.AdminJobsRepo
	worker.JobsRepository
	jobs.JobsCreator
	scheduler.StaleJobRequeuer
}

// backend is the set of stores selected by STORE.
type backend struct {
	users      userBackend
	projects   service.ProjectStore
	tasks      service.TaskStore
	jobs       jobsBackend
	deliveries worker.DeliveryLedger
	ping       func(ctx context.Context) error
	close      func()
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.LogFile)
	slog.SetDefault(log)

	if cfg.OTELEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, "taskhub-api", cfg.OTELEndpoint)
		cancel()
		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	be, err := openBackend(cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer be.close()

	seedCtx, seedCancel := config.WithTimeout(5 * time.Second)
	if err := db.EnsureAdminUser(seedCtx, be.users, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
	}
	seedCancel()

	statsCache, closeCache := openCache(cfg, log)
	defer closeCache()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	mailer := jobs.NewEnqueuer(be.jobs)

	dashboard := service.NewDashboardService(be.projects, be.tasks, statsCache, cfg.StatsCacheTTL(), log).WithProm(prom)
	projects := service.NewProjectService(be.projects, dashboard)
	tasks := service.NewTaskService(be.tasks, be.projects, be.users, dashboard)
	users := service.NewUserService(be.users, tokens, mailer, cfg.ClientURL, log)

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.Deps{
		Env:         cfg.Env,
		ServiceName: "taskhub-api",
		CORSOrigins: cfg.CORSOrigins,
		Users:       users,
		Projects:    projects,
		Tasks:       tasks,
		Dashboard:   dashboard,
		AdminJobs:   be.jobs,
		Tokens:      tokens,
		Prom:        prom,
		Ping:        be.ping,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// without a database there is no separate worker process to drain the queue
	workerDone := make(chan struct{})
	if cfg.Store == "memory" {
		go runInProcessWorker(ctx, cfg, be, prom, log, workerDone)
	} else {
		close(workerDone)
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
		<-workerDone
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openBackend(cfg config.Config, prom *observability.Prom, log *slog.Logger) (backend, error) {
	switch cfg.Store {
	case "memory":
		store := memory.NewStore()
		projects := store.Projects()
		log.Warn("using in-memory store; data is lost on restart")

		return backend{
			users:      store.Users(),
			projects:   projects,
			tasks:      store.Tasks(),
			jobs:       memory.NewJobsRepo(),
			deliveries: memory.NewEmailDeliveriesRepo(),
			ping:       projects.Ping,
			close:      func() {},
		}, nil

	case "postgres", "":
		pool, err := db.NewPool(cfg.DBURL, 10)
		if err != nil {
			return backend{}, fmt.Errorf("connect: %w", err)
		}

		ctx, cancel := config.WithTimeout(30 * time.Second)
		defer cancel()

		if err := db.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return backend{}, fmt.Errorf("migrate: %w", err)
		}

		projects := postgres.NewProjectsRepo(pool, prom)

		return backend{
			users:      postgres.NewUsersRepo(pool, prom),
			projects:   projects,
			tasks:      postgres.NewTasksRepo(pool, prom),
			jobs:       postgres.NewJobsRepo(pool, prom),
			deliveries: postgres.NewEmailDeliveriesRepo(pool, prom),
			ping:       projects.Ping,
			close:      pool.Close,
		}, nil

	default:
		return backend{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
}

// openCache prefers Redis so that several API instances share dashboard
// stats; it falls back to a per-process cache when Redis is unset or down.
func openCache(cfg config.Config, log *slog.Logger) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		return cache.New(cfg.StatsCacheTTL()), func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.New(cfg.StatsCacheTTL()), func() {}
	}

	return cache.NewRedis(rc.Raw()), func() { _ = rc.Close() }
}

func runInProcessWorker(ctx context.Context, cfg config.Config, be backend, prom *observability.Prom, log *slog.Logger, done chan<- struct{}) {
	defer close(done)

	notifier := notifications.Select(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, log)

	w := worker.New(worker.Config{
		PollInterval:  500 * time.Millisecond,
		Concurrency:   1,
		ShutdownGrace: 5 * time.Second,
	}, be.jobs, notifier, log).WithLedger(be.deliveries).WithProm(prom)

	sched := scheduler.New(log)
	if err := scheduler.RegisterMaintenance(sched, scheduler.MaintenanceConfig{}, be.jobs, be.users); err != nil {
		log.Error("scheduler setup failed", "err", err)
	} else {
		sched.Start()
		defer sched.Stop()
	}

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}
}
