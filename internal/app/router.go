package app

import (
	"exam_prep_backend/docs"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/middleware"
	"exam_prep_backend/internal/model"

	"exam_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
	router.GET("/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", c.session.StartSession)
		sessions.GET("/active", c.session.GetActiveSession)
		sessions.GET("/:sessionId", c.session.GetSession)
		sessions.POST("/:sessionId/answers", c.session.SubmitAnswer)
		sessions.PUT("/:sessionId/questions/:position/mark", c.session.MarkForReview)
		sessions.POST("/:sessionId/complete", c.session.CompleteSession)
		sessions.POST("/:sessionId/abandon", c.session.AbandonSession)
	}

	analytics := rg.Group("/analytics")
	{
		analytics.GET("/ability", c.analytics.ListAbilityProfiles)
		analytics.GET("/ability/:subject", c.analytics.GetAbilityProfile)
		analytics.GET("/streak", c.analytics.GetStreakSummary)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		questions := teacher.Group("/questions")
		{
			questions.POST("", c.question.CreateQuestion)
			questions.GET("", c.question.ListQuestions)
			questions.GET("/:id", c.question.GetQuestion)
			questions.PUT("/:id", c.question.UpdateQuestion)
			questions.DELETE("/:id", c.question.DeleteQuestion)
			questions.POST("/:id/disable", c.question.DisableQuestion)
		}
	}
}
