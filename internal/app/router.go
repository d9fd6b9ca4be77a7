package app

import (
	"techlift_backend/docs"
	"techlift_backend/internal/config"
	"techlift_backend/internal/middleware"
	"techlift_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerLearningRoutes(authGroup, c)
		a.registerCommunityRoutes(authGroup, c)
		a.registerUserRoutes(authGroup, c)
	}
}

func (a *App) registerLearningRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/courses", c.course.GetCourses)
	rg.GET("/courses/:courseId", c.course.GetCourse)
	rg.GET("/courses/:courseId/lessons", c.course.GetLessons)
	rg.GET("/lessons/:lessonId", c.course.GetLesson)
	rg.GET("/lessons/:lessonId/quiz", c.course.GetLessonQuiz)
	rg.PUT("/lessons/:lessonId/completion", c.progress.SetLessonCompletion)
	rg.GET("/progress", c.progress.GetOverview)
	rg.GET("/events", c.events.Stream)
	rg.GET("/quizzes/:quizId/results", c.quiz.GetResults)

	session := rg.Group("/quizzes/:quizId/session")
	{
		session.POST("", c.quiz.StartSession)
		session.GET("", c.quiz.GetSession)
		session.DELETE("", c.quiz.AbandonSession)
		session.POST("/answer", c.quiz.Answer)
		session.POST("/navigate", c.quiz.Navigate)
	}
}

func (a *App) registerCommunityRoutes(rg *gin.RouterGroup, c *controllers) {
	community := rg.Group("/community")
	{
		community.GET("/posts", c.community.GetPosts)
		community.GET("/posts/:id", c.community.GetPost)
		community.POST("/posts", c.community.CreatePost)
		community.PUT("/posts/:id", c.community.UpdatePost)
		community.DELETE("/posts/:id", c.community.DeletePost)
		community.POST("/posts/:id/like", c.community.LikePost)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.user.GetProfile)
	rg.PUT("/profile", c.user.UpdateProfile)
	rg.POST("/profile/avatar", c.user.UploadAvatar)
	rg.GET("/users/map", c.user.GetMapUsers)
	rg.GET("/users/leaderboard", c.user.GetLeaderboard)
}
