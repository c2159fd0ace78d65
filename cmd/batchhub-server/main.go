package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/alpha9553/cognizant-batch-hub/pkg/attendance"
	"github.com/alpha9553/cognizant-batch-hub/pkg/batch"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/config"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/database"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/kafka"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/export"
	"github.com/alpha9553/cognizant-batch-hub/pkg/middleware"
	"github.com/alpha9553/cognizant-batch-hub/pkg/report"
	"github.com/alpha9553/cognizant-batch-hub/pkg/stats"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	batchRepo := batch.NewRepository(db)
	if err := batchRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate batch tables")
	}

	attendanceRepo := attendance.NewRepository(db)
	if err := attendanceRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate attendance tables")
	}

	redisClient := database.GetRedis()
	fallback := batch.NewFallbackStore(redisClient)

	producer := kafka.NewProducer(cfg.BatchEventsTopic)
	defer producer.Close()

	rules, err := report.LoadHeuristics(cfg.ParserRulesPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load parser rules")
	}
	parser := report.NewParser(rules)

	batchSvc := batch.NewService(batchRepo, fallback, producer)
	batchSvc.Init(context.Background())

	attendanceSvc := attendance.NewService(attendanceRepo, batchSvc)
	statsSvc := stats.NewService(batchSvc, redisClient, cfg.StatsCacheTTL)
	exportSvc := export.NewService(batchSvc)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxUploadBytes))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(r.Context()) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	batch.NewHandler(batchSvc, parser, cfg.MaxUploadBytes).Register(api)
	attendance.NewHandler(attendanceSvc).Register(api)
	stats.NewHandler(statsSvc).Register(api)
	export.NewHandler(exportSvc).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Batch Hub started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	go func() {
		consumer := kafka.NewConsumer(cfg.BatchEventsTopic, cfg.KafkaGroupID+"-stats")
		defer consumer.Close()
		if err := statsSvc.RunConsumer(ctx, consumer); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("stats consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Batch Hub...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Batch Hub stopped")
}
