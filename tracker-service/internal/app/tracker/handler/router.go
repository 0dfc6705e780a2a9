package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"iat/pkg/logger"
	"iat/pkg/metrics"
)

const serviceName = "tracker-service"

// Handlers набор обработчиков, подключаемых к роутеру
type Handlers struct {
	Auth    *AuthHandler
	Groups  *GroupHandler
	Forms   *FormHandler
	Project *ProjectHandler
}

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(h Handlers, authMiddleware *AuthMiddleware, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	// CORS для фронтенда
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticate := authMiddleware.Authenticate()
	api := router.Group("/api/v1")

	// Пользователи: регистрация и вход публичные
	user := api.Group("/user")
	{
		user.POST("/register", h.Auth.Register)
		user.POST("/login", h.Auth.Login)
		user.POST("/refresh", h.Auth.RefreshToken)
		user.GET("/all-interns", h.Auth.ListInterns)
		user.GET("/department-counts", h.Auth.DepartmentCounts)

		user.POST("/logout", authenticate, h.Auth.Logout)
		user.GET("/me", authenticate, h.Auth.GetMe)
		user.GET("/verify-token", authenticate, h.Auth.VerifyToken)
	}

	// Группы: все маршруты требуют аутентификации
	groups := api.Group("/groups")
	groups.Use(authenticate)
	{
		groups.GET("", h.Groups.ListGroups)
		groups.POST("", h.Groups.CreateGroup)
		groups.GET("/:id", h.Groups.GetGroup)
		groups.DELETE("/:id", h.Groups.DeleteGroup)
		groups.POST("/:id/join", h.Groups.JoinGroup)
		groups.POST("/:id/leave", h.Groups.LeaveGroup)
		groups.GET("/:id/ratings", h.Groups.GetRatings)
		groups.POST("/:id/ratings", h.Groups.RateGroup)
		groups.DELETE("/:id/ratings", h.Groups.RemoveRating)
	}

	// Отчеты: лента активностей публичная
	forms := api.Group("/form")
	{
		forms.GET("/intern-activities", h.Forms.InternActivities)

		forms.POST("/submit-form", authenticate, h.Forms.SubmitForm)
		forms.GET("/all-forms", authenticate, h.Forms.AllForms)
		forms.GET("/daily-forms", authenticate, h.Forms.DailyForms)
		forms.GET("/user-history/:userId", authenticate, h.Forms.UserHistory)
	}

	projects := api.Group("/projects")
	projects.Use(authenticate)
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:id", h.Project.GetProject)
		projects.PUT("/:id", h.Project.UpdateProject)
		projects.DELETE("/:id", h.Project.DeleteProject)
		projects.PATCH("/:id/progress", h.Project.UpdateProgress)
		projects.PUT("/:id/checkpoints", h.Project.ReplaceCheckpoints)
		projects.PATCH("/:id/checkpoints/:checkpointId", h.Project.UpdateCheckpoint)
	}

	return router
}
