package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"brems/internal/domain/audit"
	"brems/internal/domain/auth"
	"brems/internal/domain/employee"
	"brems/internal/domain/notifications"
	"brems/internal/domain/profilechange"
	"brems/internal/platform/config"
	"brems/internal/platform/db"
	"brems/internal/platform/email"
	"brems/internal/platform/jobs"
	"brems/internal/platform/metrics"
	"brems/internal/platform/storage"
	"brems/internal/transport/http/api"
	audithandler "brems/internal/transport/http/handlers/audit"
	authhandler "brems/internal/transport/http/handlers/auth"
	employeehandler "brems/internal/transport/http/handlers/employee"
	notificationshandler "brems/internal/transport/http/handlers/notifications"
	profilechangehandler "brems/internal/transport/http/handlers/profilechange"
	"brems/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Router  http.Handler
	Changes *profilechange.Service
	Sweeper *jobs.PendingSweeper
}

// New wires the full application: stores, services, middleware chain and
// routes. The caller owns the pool's lifetime.
func New(cfg config.Config, pool *db.Pool) *App {
	employeeStore := employee.NewStore(pool)
	requestStore := profilechange.NewStore(pool)
	fileStore := storage.New(cfg.DocumentDir)
	notificationStore := notifications.NewStore(pool)

	notify := notifications.New(notificationStore, email.New(cfg), cfg.EmailFrom)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	changes := profilechange.NewService(employeeStore, requestStore, fileStore, notify, collector)
	auditor := audit.New(pool)

	sweeper := &jobs.PendingSweeper{
		Storage:  fileStore,
		Requests: requestStore,
		Drafts:   changes.Drafts,
		TTL:      cfg.PendingTTL,
		Interval: cfg.PendingSweepInterval,
		Metrics:  collector,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
				api.Success(w, collector.Snapshot(), middleware.GetRequestID(req.Context()))
			})
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret, cfg.TokenTTL)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.With(middleware.RequireAuth).Get("/auth/me", authHandler.HandleMe)

		employeeHandler := employeehandler.NewHandler(employeeStore, changes, auditor, cfg.MaxDocumentBytes)
		employeeHandler.RegisterRoutes(r)

		requestHandler := profilechangehandler.NewHandler(changes, auditor)
		requestHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(notify)
		notificationsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditor)
		auditHandler.RegisterRoutes(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Mount("/files", http.StripPrefix("/files/", fileServer(fileStore)))
	})

	return &App{
		Config:  cfg,
		Router:  router,
		Changes: changes,
		Sweeper: sweeper,
	}
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app := New(cfg, pool)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go app.Sweeper.Run(sweepCtx)

	log.Printf("BREMS server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// fileServer serves stored documents through the storage layer so the same
// traversal guard applies to reads as to writes.
func fileServer(store *storage.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		file, err := store.Open(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	})
}
