package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/risknet/internal/application"
	appassess "github.com/bryanwahyu/risknet/internal/application/assessment"
	"github.com/bryanwahyu/risknet/internal/application/graphmgr"
	"github.com/bryanwahyu/risknet/internal/application/resolver"
	"github.com/bryanwahyu/risknet/internal/config"
	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	cachedomain "github.com/bryanwahyu/risknet/internal/domain/cache"
	"github.com/bryanwahyu/risknet/internal/domain/intel"
	memcache "github.com/bryanwahyu/risknet/internal/infra/cache/memory"
	rediscache "github.com/bryanwahyu/risknet/internal/infra/cache/redis"
	mysqlp "github.com/bryanwahyu/risknet/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/risknet/internal/infra/db/postgres"
	"github.com/bryanwahyu/risknet/internal/infra/httpserver"
	intellocal "github.com/bryanwahyu/risknet/internal/infra/intel/local"
	intelopenai "github.com/bryanwahyu/risknet/internal/infra/intel/openai"
	"github.com/bryanwahyu/risknet/internal/infra/sanctions/opensanctions"
	minioStore "github.com/bryanwahyu/risknet/internal/infra/storage"
	"github.com/bryanwahyu/risknet/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect Postgres (graph store, required)
	pg, err := postgresp.Connect(ctx, cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("postgres connect error: %v", err)
	}
	defer pg.Close()

	graphRepo := postgresp.NewGraphRepository(pg)
	if err := graphRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("graph schema error: %v", err)
	}
	graphSvc := graphmgr.NewService(graphRepo)

	healthChecks := map[string]middleware.HealthChecker{
		"postgres": &middleware.DatabaseHealthChecker{DB: pg},
	}

	// connect MySQL (history + failure audit, optional)
	var (
		history  domain.HistoryRepository
		failures domain.FailureRepository
	)
	if cfg.MySQL.Host != "" {
		mdb, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Printf("mysql unavailable, running without assessment history: %v", err)
		} else {
			defer mdb.Close()
			assessRepo := mysqlp.NewAssessmentRepository(mdb)
			failRepo := mysqlp.NewFailureRepository(mdb)
			if err := assessRepo.EnsureSchema(ctx); err != nil {
				log.Fatalf("history schema error: %v", err)
			}
			if err := failRepo.EnsureSchema(ctx); err != nil {
				log.Fatalf("failure schema error: %v", err)
			}
			history = assessRepo
			failures = failRepo
			healthChecks["mysql"] = &middleware.DatabaseHealthChecker{DB: mdb}
		}
	}

	// cache: Redis when configured, in-process fallback otherwise
	var cacheStore cachedomain.Store = memcache.NewStore()
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("redis unavailable, falling back to memory cache: %v", err)
		} else {
			defer rdb.Close()
			cacheStore = rediscache.NewStore(rdb)
			healthChecks["redis"] = &middleware.RedisHealthChecker{Client: rdb}
		}
	}

	// report archive (optional)
	var reports domain.ReportArchive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Printf("minio unavailable, running without report archive: %v", err)
		} else {
			reports = store
		}
	}

	// web intelligence: LLM when a key is configured, keyword screening otherwise
	var gatherer intel.Gatherer = intellocal.NewGatherer()
	if cfg.OpenAI.APIKey != "" {
		gatherer = intelopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	// init service
	svc := &appassess.Service{
		Resolver:      resolver.NewService(),
		Sanctions:     opensanctions.NewClient(cfg.OpenSanctions.BaseURL, cfg.OpenSanctions.APIKey),
		Intel:         gatherer,
		Graph:         graphSvc,
		Cache:         cacheStore,
		History:       history,
		Failures:      failures,
		Reports:       reports,
		Scorer:        appassess.NewScorer(cfg.Risk),
		Clock:         application.SystemClock{},
		NormalProfile: cfg.Modes.Normal,
		FastProfile:   cfg.Modes.Fast,
	}
	svc.SetFastMode(cfg.Modes.Default == "fast")

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 2))
	mux.Get("/healthz", middleware.HealthHandler(healthChecks))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc, graphSvc, cacheStore))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
