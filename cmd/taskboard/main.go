package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/turbovets/taskboard/internal/app"
	"github.com/turbovets/taskboard/internal/audit"
	"github.com/turbovets/taskboard/internal/auth"
	"github.com/turbovets/taskboard/internal/observability"
	"github.com/turbovets/taskboard/internal/platform/cache"
	"github.com/turbovets/taskboard/internal/platform/db"
	"github.com/turbovets/taskboard/internal/rbac"
	"github.com/turbovets/taskboard/internal/roles"
	"github.com/turbovets/taskboard/internal/shared"
	"github.com/turbovets/taskboard/internal/tasks"
	"github.com/turbovets/taskboard/internal/users"
	"github.com/turbovets/taskboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("taskboard exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacMiddleware := rbac.Middleware{Logger: logger}

	rolesService := roles.NewService(roles.NewRepository(pool))
	defaultRoles, err := rolesService.EnsureDefaults(ctx)
	if err != nil {
		return err
	}
	usersService := users.NewService(users.NewRepository(pool))

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authService := auth.NewService(usersService, rolesService, tokens, auth.NewDenylist(redisClient), logger)
	if cfg.BootstrapAdminEmail != "" {
		if err := bootstrapAdmin(ctx, authService, cfg, defaultRoles, logger); err != nil {
			return err
		}
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	observers := tasks.Observers{
		tasks.AuditObserver{Recorder: shared.NewAuditLogger(pool), Logger: logger},
		tasks.AssignmentNotifier{Enqueuer: jobClient, Logger: logger},
	}
	tasksService := tasks.NewService(tasks.NewPGStore(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Authenticator: auth.Authenticator(authService, logger),
		AuthRoutes:    auth.NewHandler(logger, authService).MountRoutes,
		TasksHandler:  tasks.NewHandler(logger, tasksService, observers, metrics),
		UsersHandler:  users.NewHandler(logger, usersService, rbacMiddleware),
		RolesHandler:  roles.NewHandler(logger, rolesService, rbacMiddleware),
		AuditHandler:  audit.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), rbacMiddleware),
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
		HealthChecks: map[string]app.HealthCheck{
			"postgres": func(r *http.Request) error { return pool.Ping(r.Context()) },
			"redis":    func(r *http.Request) error { return redisClient.Ping(r.Context()).Err() },
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func bootstrapAdmin(ctx context.Context, svc *auth.Service, cfg *app.Config, ensured []rbac.Role, logger *slog.Logger) error {
	var admin []rbac.Role
	for _, r := range ensured {
		if r.Name == roles.RoleAdmin {
			admin = append(admin, r)
		}
	}
	if len(admin) == 0 {
		return errors.New("bootstrap admin: admin role missing")
	}
	user, created, err := svc.Provision(ctx, auth.RegisterInput{
		Email:     cfg.BootstrapAdminEmail,
		Password:  cfg.BootstrapAdminPassword,
		FirstName: "Admin",
	}, admin)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", slog.String("user_id", user.ID))
	}
	return nil
}
