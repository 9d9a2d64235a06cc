package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/psds-microservice/complaint-service/internal/blob"
	"github.com/psds-microservice/complaint-service/internal/config"
	"github.com/psds-microservice/complaint-service/internal/database"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/handler"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/policy"
	"github.com/psds-microservice/complaint-service/internal/repository"
	"github.com/psds-microservice/complaint-service/internal/router"
	"github.com/psds-microservice/complaint-service/internal/searchindex"
	"github.com/psds-microservice/complaint-service/internal/service"
)

// API приложение: HTTP сервер (режим api).
type API struct {
	cfg     *config.Config
	log     *slog.Logger
	httpSrv *http.Server
	closers []io.Closer

	// scopeBus доставляет в scopes сбросы от служебных команд; nil без Redis.
	scopeBus *events.ScopeBus
	scopes   *service.ProfileScopeCache
}

// profileCacheSize: кэш категорий AdminProfile включается только вместе с
// шиной сброса, иначе изменения профилей из служебных команд не дойдут до API.
func profileCacheSize(cfg *config.Config, busEnabled bool) int {
	if !busEnabled {
		return 0
	}
	return cfg.ProfileCacheSize
}

// NewAPI создаёт приложение для режима api.
func NewAPI(cfg *config.Config, log *slog.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	blobs, err := blob.New(cfg.MediaRoot)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}

	store := repository.New(db)
	app := &API{cfg: cfg, log: log, closers: []io.Closer{sqlDB}}

	bus := events.NewScopeBus(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ScopeChannel, log)
	size := profileCacheSize(cfg, bus.Enabled())
	if size == 0 && cfg.ProfileCacheSize > 0 {
		log.Warn("profile scope cache disabled: REDIS_ADDR is not set")
	}
	scopes := service.NewProfileScopeCache(store.Profiles, size, cfg.ProfileCacheTTL)
	var invalidator service.ScopeInvalidator = scopes
	if bus.Enabled() {
		invalidator = service.ScopeInvalidators{scopes, bus}
		app.scopeBus, app.scopes = bus, scopes
		app.closers = append(app.closers, bus)
	}
	var publishers events.Multi
	if p := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopicComplaint, log); p.Enabled() {
		publishers = append(publishers, p)
		app.closers = append(app.closers, p)
	}
	if p := events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel, log); p.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := p.Ping(ctx); err != nil {
			log.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		publishers = append(publishers, p)
		app.closers = append(app.closers, p)
	}

	svc := service.New(service.Deps{
		Categories:     store.Categories,
		Complaints:     store.Complaints,
		Comments:       store.Comments,
		Attachments:    store.Attachments,
		Blobs:          blobs,
		Resolver:       policy.NewResolver(scopes),
		Authorizer:     policy.NewAuthorizer(policy.Options{AdminGroup: cfg.AdminGroup, AllowAnonymousComplaints: cfg.AllowAnonymousComplaints}),
		Events:         publishers,
		Indexer:        searchindex.NewClient(cfg.SearchServiceURL, log),
		Scopes:         invalidator,
		Logger:         log,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	h := router.New(router.Handlers{
		Health:      handler.NewHealthHandler(sqlDB),
		Categories:  handler.NewCategoryHandler(svc.Categories),
		Complaints:  handler.NewComplaintHandler(svc.Complaints),
		Comments:    handler.NewCommentHandler(svc.Comments),
		Attachments: handler.NewAttachmentHandler(svc.Attachments, cfg.MaxUploadBytes),
	}, router.Options{
		Tokens: identity.NewTokenProvider(cfg.SigningSecret(), cfg.JWTIssuer, cfg.JWTTTL),
		Logger: log,
	})

	app.httpSrv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return app, nil
}

// Run запускает HTTP сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening", "addr", a.httpSrv.Addr)
	a.log.Info("endpoints",
		"swagger", base+"/swagger",
		"health", base+"/health",
		"metrics", base+"/metrics",
		"api", base+"/api/v1/")

	if a.scopeBus != nil {
		go func() {
			if err := a.scopeBus.Listen(ctx, a.scopes); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Warn("scope bus stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close", "error", err)
		}
	}
	return runErr
}
