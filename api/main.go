package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/elasticsearch"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/logger"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

func main() {
	log := logger.New("api")
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("load .env", slog.Any("err", err))
	}

	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	source, err := dataset.NewSource(ctx, cfg.Dataset)
	if err != nil {
		log.Error("init data source", slog.Any("err", err))
		os.Exit(1)
	}

	storeOpts := []dataset.StoreOption{dataset.WithLogger(log)}
	if cfg.ExcludeNonAI {
		rules, err := processing.LoadExclusionRules(cfg.ExclusionRulesFile)
		if err != nil {
			log.Error("load exclusion rules", slog.Any("err", err))
			os.Exit(1)
		}
		storeOpts = append(storeOpts, dataset.WithExclusionPolicy(rules))
	}

	srv := &server{
		log:   log,
		cfg:   cfg,
		store: dataset.NewStore(source, storeOpts...),
		now:   time.Now,
	}

	if cfg.SearchBackend == config.SearchElasticsearch {
		esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Error("init elasticsearch", slog.Any("err", err))
			os.Exit(1)
		}
		srv.search = esClient
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("source", source.Describe()),
			slog.String("search", string(cfg.SearchBackend)),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/policies", s.handlePolicies)
		r.Get("/policies/export", s.handleExport)
		r.Get("/filters", s.handleFilters)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/timeline", s.handleTimeline)
			r.Get("/trend", s.handleTrend)
			r.Get("/policy-types", s.handlePolicyTypes)
			r.Get("/sectors", s.handleSectors)
			r.Get("/regulations/sectors", s.handleRegulationSectors)
			r.Get("/departments/activity", s.handleDepartmentActivity)
		})

		r.Get("/departments", s.handleDepartments)
		r.Get("/departments/{dept}", s.handleDepartment)

		r.Get("/topics", s.handleTopics)
		r.Get("/topics/by-department", s.handleTopicsByDepartment)
		r.Get("/topics/{topic}", s.handleTopic)

		r.Get("/regulations", s.handleRegulations)
		r.Get("/compliance", s.handleCompliance)
		r.Get("/search", s.handleSearch)
	})

	return r
}
