package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/agencyloop/agencyloop-backend/internal/db"
	"github.com/agencyloop/agencyloop-backend/internal/flowtemplate"
	"github.com/agencyloop/agencyloop-backend/internal/handlers"
	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/middleware"
	"github.com/agencyloop/agencyloop-backend/internal/observability"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/server"
	"github.com/agencyloop/agencyloop-backend/internal/services"
	"github.com/agencyloop/agencyloop-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Loading environment variables...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)

	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "agencyloop-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
	} else {
		log.Warn("REDIS_ADDR not set, unread counters disabled")
	}

	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	orgRepo := repos.NewOrgRepo(thePG, log)
	membershipRepo := repos.NewOrgMembershipRepo(thePG, log)
	nodeRepo := repos.NewOnboardingNodeRepo(thePG, log)
	progressRepo := repos.NewOnboardingProgressRepo(thePG, log)
	signatureRepo := repos.NewContractSignatureRepo(thePG, log)
	metricRepo := repos.NewMetricRepo(thePG, log)
	reportRepo := repos.NewReportRepo(thePG, log)
	sectionRepo := repos.NewReportSectionRepo(thePG, log)
	deliverableRepo := repos.NewDeliverableRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)

	log.Info("Setting up services...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, uploads disabled", "error", err)
	}
	var avatarService services.AvatarService
	if bucketService != nil {
		avatarService, err = services.NewAvatarService(log, bucketService)
		if err != nil {
			log.Warn("Could not init AvatarService, avatars disabled", "error", err)
		}
	}
	notifier := services.NewEmailNotifier(log)

	var flow *flowtemplate.Template
	if path := os.Getenv("FLOW_TEMPLATE_PATH"); path != "" {
		flow, err = flowtemplate.Load(path)
		if err != nil {
			log.Fatal("Could not load flow template", "error", err, "path", path)
		}
	}

	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, avatarService, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	orgService := services.NewOrgService(thePG, log, orgRepo, membershipRepo, userRepo, nodeRepo, avatarService, notifier, flow)
	onboardingService := services.NewOnboardingService(thePG, log, nodeRepo, progressRepo, signatureRepo, membershipRepo, orgRepo, userRepo, notifier)
	contractService := services.NewContractService(thePG, log, nodeRepo, progressRepo, signatureRepo, userRepo)
	metricsService := services.NewMetricsService(thePG, log, metricRepo)
	reportService := services.NewReportService(thePG, log, reportRepo, sectionRepo, metricRepo, deliverableRepo, membershipRepo, orgRepo, notifier)
	deliverableService := services.NewDeliverableService(thePG, log, deliverableRepo, bucketService)
	unreadService := services.NewUnreadService(log, rdb)
	messageService := services.NewMessageService(thePG, log, messageRepo, membershipRepo, unreadService)

	log.Info("Setting up handlers and router...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         handlers.NewAuthHandler(authService),
		UserHandler:         handlers.NewUserHandler(userService),
		OrgHandler:          handlers.NewOrgHandler(orgService),
		OnboardingHandler:   handlers.NewOnboardingHandler(onboardingService),
		ContractHandler:     handlers.NewContractHandler(contractService),
		MetricHandler:       handlers.NewMetricHandler(metricsService),
		ReportHandler:       handlers.NewReportHandler(reportService),
		DeliverableHandler:  handlers.NewDeliverableHandler(deliverableService),
		MessageHandler:      handlers.NewMessageHandler(messageService),
		AuthMiddleware:      middleware.NewAuthMiddleware(log, authService),
		OrgMemberMiddleware: middleware.NewOrgMemberMiddleware(log, membershipRepo),
		AllowedOrigins:      splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
