package app

import (
	"survey_backend/docs"
	"survey_backend/internal/middleware"
	"survey_backend/internal/model"
	"survey_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.Use(middleware.RequestID())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(api, c)

	// 2. 需要授权的路由
	authGroup := api.Group("")
	authGroup.Use(middleware.AuthMiddleware(a.Config))
	{
		authGroup.GET("/me", c.auth.Me)

		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/health", c.health.HealthCheck)
	api.GET("/sections", c.section.ListSections)
	api.POST("/register", c.auth.Register)
	api.POST("/login", c.auth.Login)
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	student := group.Group("")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.GET("/student/surveys", c.student.AssignedSurveys)
		student.GET("/student/dashboard", c.student.Dashboard)
		student.GET("/student/history", c.student.History)
		student.GET("/surveys/:id", c.student.SurveyDetail)
		student.POST("/surveys/:id/submit", c.student.Submit)
	}
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.GET("/dashboard", c.survey.Dashboard)
		teacher.POST("/sections", c.section.CreateSection)

		teacher.GET("/surveys", c.survey.ListSurveys)
		teacher.POST("/surveys", c.survey.CreateSurvey)
		teacher.GET("/surveys/:id", c.survey.GetSurvey)
		teacher.PUT("/surveys/:id", c.survey.UpdateSurvey)
		teacher.DELETE("/surveys/:id", c.survey.DeleteSurvey)

		teacher.POST("/surveys/:id/questions", c.survey.AddQuestion)
		teacher.PUT("/surveys/:id/questions/:questionId", c.survey.EditQuestion)
		teacher.DELETE("/surveys/:id/questions/:questionId", c.survey.DeleteQuestion)

		teacher.GET("/surveys/:id/responses", c.survey.Responses)
		teacher.GET("/surveys/:id/summary", c.survey.Summary)
		teacher.POST("/surveys/:id/export", c.survey.Export)
	}
}
