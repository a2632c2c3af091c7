package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-platform/config"
	"wellness-platform/consumer"
	"wellness-platform/external"
	"wellness-platform/handlers"
	"wellness-platform/middleware"
	"wellness-platform/models"
	"wellness-platform/monitoring"
	"wellness-platform/scheduling"
	"wellness-platform/utils"
)

func main() {
	logger := log.New(os.Stdout, "WELLNESS: ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := utils.InitSentry(cfg.SentryDSN, cfg.Env, cfg.AppVersion); err != nil {
			logger.Printf("Sentry disabled: %v", err)
		}
	}

	monitoring.Init()

	// Подключаемся к Postgres с ретраями
	var repo *models.PostgresRepository
	var err error
	maxRetries := 5
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		repo, err = models.NewPostgresRepository(cfg.DatabaseDSN)
		if err == nil {
			break
		}
		logger.Printf("Attempt %d: Failed to connect to Postgres: %v", i+1, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		logger.Fatalf("Failed to initialize Postgres after %d attempts: %v", maxRetries, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Printf("Error closing Postgres connection: %v", err)
		}
	}()

	// Redis, Kafka и Elasticsearch не критичны для старта: без них сервис
	// работает в деградированном режиме
	redisClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Printf("Redis unavailable, continuing without cache: %v", err)
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Printf("Error closing Redis connection: %v", err)
			}
		}()
	}

	kafkaProducer, err := utils.NewKafkaProducer(cfg.KafkaBroker)
	if err != nil {
		logger.Printf("Kafka unavailable, continuing without events: %v", err)
		kafkaProducer = nil
	} else {
		defer kafkaProducer.Close()
	}

	esClient, err := utils.NewElasticsearchClient(cfg.ElasticsearchURL)
	if err != nil {
		logger.Printf("Elasticsearch unavailable, continuing without search index: %v", err)
		esClient = nil
	}

	externalService := external.NewService(cfg.ExternalAPI, redisClient)

	checker := scheduling.NewConflictChecker(repo)
	generator := scheduling.NewGenerator(checker, repo)

	if kafkaProducer != nil && redisClient != nil {
		syncConsumer := consumer.NewSyncConsumer(cfg.KafkaBroker, repo, redisClient, esClient)
		syncConsumer.Start(context.Background())
		defer syncConsumer.Stop()
	}

	// Начальная посадка данных от провайдера (или демо-набора)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := externalService.SyncAll(ctx, repo); err != nil {
			logger.Printf("Error during initial data sync: %v", err)
		} else {
			logger.Println("Initial data sync completed")
		}
	}()

	router := setupRouter(cfg, repo, kafkaProducer, checker, generator, externalService)

	logger.Printf("Server is running on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}

func setupRouter(cfg *config.Config, repo models.Repository, kafkaProducer utils.KafkaProducer,
	checker *scheduling.ConflictChecker, generator *scheduling.Generator,
	externalService *external.Service) *gin.Engine {

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		middleware.SentryMiddleware(),
		middleware.PrometheusMetrics(),
		middleware.ErrorHandler(),
	)

	clientHandler := handlers.NewClientHandler(repo, kafkaProducer)
	appointmentHandler := handlers.NewAppointmentHandler(repo, kafkaProducer, checker, generator)
	analyticsHandler := handlers.NewAnalyticsHandler(repo)
	systemHandler := handlers.NewSystemHandler(cfg, repo, externalService)

	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)
	router.GET("/health/detailed", systemHandler.DetailedHealth)
	router.POST("/sync", systemHandler.Sync)
	router.GET("/external/status", systemHandler.ExternalStatus)
	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	api := router.Group("/api")

	clients := api.Group("/clients")
	{
		clients.GET("", clientHandler.ListClients)
		clients.POST("", clientHandler.CreateClient)
		clients.GET("/analytics", clientHandler.GetClientAnalytics)
		clients.GET("/export/csv", clientHandler.ExportClientsCSV)
		clients.GET("/:id", clientHandler.GetClient)
		clients.PUT("/:id", clientHandler.UpdateClient)
		clients.DELETE("/:id", clientHandler.DeleteClient)
		clients.GET("/:id/appointments", clientHandler.GetClientAppointments)
		clients.GET("/:id/analytics", clientHandler.GetSingleClientAnalytics)
	}

	appointments := api.Group("/appointments")
	{
		appointments.GET("", appointmentHandler.ListAppointments)
		appointments.POST("", appointmentHandler.CreateAppointment)
		appointments.GET("/conflicts", appointmentHandler.CheckConflicts)
		appointments.GET("/analytics", appointmentHandler.GetAppointmentAnalytics)
		appointments.GET("/trends", appointmentHandler.GetAppointmentTrends)
		appointments.POST("/recurring", appointmentHandler.CreateRecurring)
		appointments.GET("/reminders/pending", appointmentHandler.GetPendingReminders)
		appointments.GET("/:id", appointmentHandler.GetAppointment)
		appointments.PUT("/:id", appointmentHandler.UpdateAppointment)
		appointments.DELETE("/:id", appointmentHandler.DeleteAppointment)
		appointments.POST("/:id/send-reminder", appointmentHandler.SendReminder)
	}

	analyticsRoutes := api.Group("/analytics")
	{
		analyticsRoutes.GET("/dashboard", analyticsHandler.GetDashboard)
		analyticsRoutes.GET("/trends", analyticsHandler.GetSystemTrends)
		analyticsRoutes.GET("/reports/client-activity", analyticsHandler.GetClientActivityReport)
		analyticsRoutes.GET("/reports/appointment-performance", analyticsHandler.GetPerformanceReport)
	}

	return router
}
