package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	alarmapp "bms-reports/internal/alarmreport/application"
	"bms-reports/internal/alarmreport/infrastructure/historian"
	reportstore "bms-reports/internal/alarmreport/infrastructure/store"
	reporthttp "bms-reports/internal/alarmreport/interfaces/http"
	"bms-reports/internal/alarmreport/render"
	"bms-reports/internal/alarmreport/stamp"
	"bms-reports/internal/audit"
	"bms-reports/internal/auth"
	"bms-reports/internal/config"
	"bms-reports/internal/database"
	"bms-reports/internal/logger"
	"bms-reports/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config error", zap.Error(err))
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.ServiceName)
	if err != nil {
		zap.NewExample().Fatal("logger error", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("timezone error", zap.Error(err))
	}

	ctx := context.Background()
	storeDB, storeDialect, err := database.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, database.Options{})
	if err != nil {
		log.Fatal("report store open error", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer storeDB.Close()

	historianDB, historianDialect, err := database.Open(ctx, cfg.Historian.Driver, cfg.Historian.DSN, database.Options{MaxOpenConns: 4})
	if err != nil {
		log.Fatal("historian open error", zap.String("driver", cfg.Historian.Driver), zap.Error(err))
	}
	defer historianDB.Close()

	schema := cfg.Historian.Schema
	if schema == "" && historianDialect.Name() == "sqlserver" {
		schema = historian.DefaultSQLServerSchema
	}
	fetcher, err := historian.NewRecordFetcher(historianDB, historianDialect, schema, log.Named("historian"))
	if err != nil {
		log.Fatal("record fetcher error", zap.Error(err))
	}

	repo, err := reportstore.NewRepository(storeDB, storeDialect, reportstore.WithTable(cfg.Store.Table))
	if err != nil {
		log.Fatal("report repository error", zap.Error(err))
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("report schema error", zap.Error(err))
	}

	auditRepo := audit.NewRepository(storeDB, storeDialect)
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		log.Fatal("audit schema error", zap.Error(err))
	}

	metrics.Init(repo, log.Named("metrics"))

	renderer := render.NewRenderer(render.Options{
		Title:       cfg.Report.Title,
		ServiceName: cfg.ServiceName,
		Location:    loc,
		Logo:        render.LoadLogo(cfg.Report.LogoPath, log),
		Compress:    cfg.CompressPDF(),
	}, log.Named("render"))
	stamper := stamp.NewStamper(cfg.Report.DefaultReviewer, loc, log.Named("stamp"))

	service, err := alarmapp.NewReportService(fetcher, renderer, stamper, repo, alarmapp.Options{
		SkipEmpty: cfg.Report.SkipEmpty,
		Title:     cfg.Report.Title,
		Location:  loc,
		Audit:     auditRepo,
		Logger:    log.Named("reports"),
	})
	if err != nil {
		log.Fatal("report service error", zap.Error(err))
	}
	handler, err := reporthttp.NewHandler(service, loc, log.Named("http"))
	if err != nil {
		log.Fatal("report handler error", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(log.Named("access")))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.AuthEnabled() {
		authMiddleware, err := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil), log.Named("auth"))
		if err != nil {
			log.Fatal("auth middleware error", zap.Error(err))
		}
		r.Use(authMiddleware.Wrap)
	} else {
		log.Warn("AUTH_JWT_SECRET not set, report routes are unauthenticated")
	}

	handler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := storeDB.PingContext(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(resp, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", resp.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
