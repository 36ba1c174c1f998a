package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/agencyloop/agencyloop-backend/internal/handlers"
	"github.com/agencyloop/agencyloop-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	OrgHandler          *handlers.OrgHandler
	OnboardingHandler   *handlers.OnboardingHandler
	ContractHandler     *handlers.ContractHandler
	MetricHandler       *handlers.MetricHandler
	ReportHandler       *handlers.ReportHandler
	DeliverableHandler  *handlers.DeliverableHandler
	MessageHandler      *handlers.MessageHandler
	AuthMiddleware      *middleware.AuthMiddleware
	OrgMemberMiddleware *middleware.OrgMemberMiddleware
	AllowedOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("agencyloop-backend"))
	router.Use(middleware.Metrics())

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.POST("/orgs", cfg.OrgHandler.Create)
	protected.GET("/orgs", cfg.OrgHandler.ListMine)

	// Org scoped
	org := protected.Group("/orgs/:orgID")
	org.Use(cfg.OrgMemberMiddleware.RequireMember())
	org.GET("", cfg.OrgHandler.Get)
	org.GET("/members", cfg.OrgHandler.ListMembers)
	org.POST("/members", cfg.OrgHandler.InviteMember)

	org.GET("/onboarding/steps", cfg.OnboardingHandler.ListSteps)
	org.POST("/onboarding/nodes", cfg.OnboardingHandler.CreateNode)
	org.PATCH("/onboarding/nodes/:nodeID", cfg.OnboardingHandler.UpdateNode)
	org.DELETE("/onboarding/nodes/:nodeID", cfg.OnboardingHandler.DeleteNode)
	org.POST("/onboarding/nodes/:nodeID/complete", cfg.OnboardingHandler.CompleteStep)
	org.GET("/onboarding/next", cfg.OnboardingHandler.NextStep)

	org.GET("/invoice/:nodeID", cfg.OnboardingHandler.ViewInvoice)

	org.GET("/contract/:nodeID", cfg.ContractHandler.View)
	org.POST("/contract/:nodeID/sign", cfg.ContractHandler.Sign)

	org.POST("/metrics-entries", cfg.MetricHandler.Create)
	org.GET("/metrics-entries", cfg.MetricHandler.List)
	org.GET("/metrics-entries/summary", cfg.MetricHandler.Aggregate)

	org.POST("/reports", cfg.ReportHandler.Generate)
	org.GET("/reports", cfg.ReportHandler.List)
	org.GET("/reports/:reportID", cfg.ReportHandler.Get)
	org.POST("/reports/:reportID/publish", cfg.ReportHandler.Publish)
	org.GET("/reports/:reportID/export", cfg.ReportHandler.ExportCSV)

	org.POST("/deliverables", cfg.DeliverableHandler.Create)
	org.GET("/deliverables", cfg.DeliverableHandler.List)
	org.POST("/deliverables/:deliverableID/complete", cfg.DeliverableHandler.Complete)

	org.POST("/messages", cfg.MessageHandler.Post)
	org.GET("/messages", cfg.MessageHandler.List)
	org.GET("/messages/unread", cfg.MessageHandler.UnreadCount)

	return router
}
