package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alcyxob/endurance-planner/internal/metrics"
	"alcyxob/endurance-planner/internal/service"
)

type Services struct {
	Auth       service.AuthService
	Plans      service.PlanService
	Compliance service.ComplianceService
	Activities service.ActivityService
}

// SetupRoutes registers the public and authenticated API on router.
func SetupRoutes(router *gin.Engine, jwtSecret string, services Services, m *metrics.Manager) {
	if m != nil {
		router.Use(MetricsMiddleware(m))
	}

	authHandler := NewAuthHandler(services.Auth)
	planHandler := NewPlanHandler(services.Plans)
	activityHandler := NewActivityHandler(services.Activities)
	complianceHandler := NewComplianceHandler(services.Compliance)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)

		plans := protected.Group("/plans")
		{
			plans.POST("", planHandler.StartPlan)
			plans.GET("", planHandler.ListPlans)
			plans.GET("/active", planHandler.GetActivePlan)
			plans.GET("/:planId", planHandler.GetPlan)
			plans.GET("/:planId/sessions", planHandler.ListSessions)
			plans.GET("/:planId/archive", planHandler.ArchiveURL)
		}

		protected.PATCH("/sessions/:sessionId/status", planHandler.UpdateSessionStatus)

		activities := protected.Group("/activities")
		{
			activities.POST("", activityHandler.Record)
			activities.GET("", activityHandler.List)
		}

		complianceRoutes := protected.Group("/compliance")
		{
			complianceRoutes.GET("/readiness", complianceHandler.Readiness)
			complianceRoutes.GET("/weekly", complianceHandler.WeeklyComparison)
		}
	}
}
