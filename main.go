package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/config"
	"github.com/easydayai/daisy-engine/pkg/database"
	"github.com/easydayai/daisy-engine/pkg/handlers"
	"github.com/easydayai/daisy-engine/pkg/llm"
	"github.com/easydayai/daisy-engine/pkg/logging"
	"github.com/easydayai/daisy-engine/pkg/middleware"
	"github.com/easydayai/daisy-engine/pkg/repositories"
	"github.com/easydayai/daisy-engine/pkg/services"
	"github.com/easydayai/daisy-engine/pkg/tools"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate).
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authService := auth.NewAuthService(jwksClient, logger)

	chatClient, err := llm.NewChatClient(&llm.Config{
		Provider: cfg.AI.Provider,
		Endpoint: cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create chat client", zap.Error(err))
	}
	chatClient = llm.NewTimeoutClient(chatClient, time.Duration(cfg.AI.RequestTimeoutSeconds)*time.Second)

	profileRepo := repositories.NewProfileRepository(db)
	knowledgeRepo := repositories.NewKnowledgeRepository(db)
	appointmentTypeRepo := repositories.NewAppointmentTypeRepository(db)
	availabilityRepo := repositories.NewAvailabilityRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	themeRepo := repositories.NewThemeRepository(db)
	reminderRepo := repositories.NewReminderRepository(db)
	creditsRepo := repositories.NewCreditsRepository(db)

	seeder := services.NewKnowledgeSeeder(knowledgeRepo, cfg.Assistant.KnowledgeSeedPath, logger)
	if err := seeder.Seed(ctx); err != nil {
		logger.Fatal("Failed to seed knowledge base", zap.Error(err))
	}

	registry := tools.NewAssistantRegistry(&tools.AssistantToolsConfig{
		ProfileRepo:         profileRepo,
		AppointmentTypeRepo: appointmentTypeRepo,
		AvailabilityRepo:    availabilityRepo,
		BookingRepo:         bookingRepo,
		ThemeRepo:           themeRepo,
		ReminderRepo:        reminderRepo,
		CreditsRepo:         creditsRepo,
		Logger:              logger,
	})

	creditService := services.NewCreditService(creditsRepo, logger)
	assistantService := services.NewAssistantService(&services.AssistantServiceConfig{
		ChatClient:    chatClient,
		Registry:      registry,
		ProfileRepo:   profileRepo,
		KnowledgeRepo: knowledgeRepo,
		CreditService: creditService,
		Logger:        logger,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewAssistantHandler(assistantService, authService, logger).RegisterRoutes(mux)

	handler := middleware.Recover(logger)(middleware.RequestLogger(logger)(mux))

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting daisy-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
