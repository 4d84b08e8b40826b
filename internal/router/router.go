package router

import (
	"fmt"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"insight-flow/backend/internal/auth"
	"insight-flow/backend/internal/cache"
	"insight-flow/backend/internal/config"
	"insight-flow/backend/internal/handlers"
	"insight-flow/backend/internal/middleware"
	"insight-flow/backend/internal/monitoring"
	"insight-flow/backend/internal/services"
)

// Dependencies are the long-lived pieces the HTTP layer is built from.
// Denylist, Health and RateLimiter are optional.
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Tokens      *auth.TokenManager
	Denylist    *cache.Denylist
	Health      *monitoring.HealthChecker
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil || deps.DB == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("router: config, db and token manager are required")
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	var (
		revoker services.TokenRevoker
		checker middleware.RevocationChecker
	)
	if deps.Denylist != nil {
		revoker = deps.Denylist
		checker = deps.Denylist
	}

	authz := services.NewAuthorizer()
	users := services.NewUserService(deps.Config.Auth.BCryptCost)
	projects := services.NewProjectService(authz)
	tasks := services.NewTaskService(authz)
	notifications := services.NewNotificationService()
	analytics := services.NewAnalyticsService(authz)
	authService := services.NewAuthService(users, deps.Tokens, deps.Config.Auth.AccessTokenTTL, revoker)

	authHandler := handlers.NewAuthHandler(authService, users)
	userHandler := handlers.NewUserHandler(users)
	projectHandler := handlers.NewProjectHandler(projects)
	taskHandler := handlers.NewTaskHandler(tasks)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	analyticsHandler := handlers.NewAnalyticsHandler(analytics)

	r := gin.New()
	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("router: trusted proxies: %w", err)
	}
	r.Use(
		middleware.RecoveryWithLog(),
		middleware.RequestLogger(),
		monitoring.MetricsMiddleware(),
		cors.New(corsConfig(deps.Config.Server.AllowedOrigins)),
	)
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	r.GET("/metrics", monitoring.MetricsHandler())
	if deps.Health != nil {
		r.GET("/health", deps.Health.HealthHandler())
		r.GET("/health/live", deps.Health.LivenessHandler())
		r.GET("/health/ready", deps.Health.ReadinessHandler())
	}

	tx := middleware.Transaction(deps.DB)
	authenticated := middleware.Authenticate(deps.Tokens, users, checker)

	authGroup := r.Group("/auth", tx)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authenticated, authHandler.Me)
		authGroup.POST("/refresh", authenticated, authHandler.Refresh)
		authGroup.POST("/logout", authenticated, authHandler.Logout)
	}

	api := r.Group("", tx, authenticated)

	usersGroup := api.Group("/users")
	{
		usersGroup.GET("", userHandler.ListUsers)
		usersGroup.POST("", userHandler.CreateUser)
		usersGroup.GET("/search/:email", userHandler.SearchByEmail)
		usersGroup.GET("/:id", userHandler.GetUser)
		usersGroup.PUT("/:id", userHandler.UpdateUser)
		usersGroup.DELETE("/:id", userHandler.DeleteUser)
	}

	projectsGroup := api.Group("/projects")
	{
		projectsGroup.GET("", projectHandler.ListProjects)
		projectsGroup.POST("", projectHandler.CreateProject)
		projectsGroup.GET("/:id", projectHandler.GetProject)
		projectsGroup.PUT("/:id", projectHandler.UpdateProject)
		projectsGroup.DELETE("/:id", projectHandler.DeleteProject)
		projectsGroup.GET("/:id/members", projectHandler.ListMembers)
		projectsGroup.POST("/:id/members", projectHandler.AddMember)
		projectsGroup.DELETE("/:id/members/:userId", projectHandler.RemoveMember)
		projectsGroup.PUT("/:id/members/:userId/role", projectHandler.UpdateMemberRole)
	}

	tasksGroup := api.Group("/tasks")
	{
		tasksGroup.GET("", taskHandler.ListTasks)
		tasksGroup.POST("", taskHandler.CreateTask)
		tasksGroup.GET("/my/tasks", taskHandler.ListMyTasks)
		tasksGroup.GET("/project/:id", taskHandler.ListProjectTasks)
		tasksGroup.GET("/:id", taskHandler.GetTask)
		tasksGroup.PUT("/:id", taskHandler.UpdateTask)
		tasksGroup.DELETE("/:id", taskHandler.DeleteTask)
		tasksGroup.PUT("/:id/status", taskHandler.UpdateStatus)
		tasksGroup.PUT("/:id/assign", taskHandler.AssignTask)
	}

	notificationsGroup := api.Group("/notifications")
	{
		notificationsGroup.GET("", notificationHandler.ListNotifications)
		notificationsGroup.POST("", notificationHandler.CreateNotification)
		notificationsGroup.GET("/unread-count", notificationHandler.UnreadCount)
		notificationsGroup.PUT("/read-all", notificationHandler.MarkAllRead)
		notificationsGroup.PUT("/:id/read", notificationHandler.MarkRead)
	}

	analyticsGroup := api.Group("/analytics")
	{
		analyticsGroup.GET("/dashboard/:id", analyticsHandler.Dashboard)
		analyticsGroup.GET("/productivity/:id", analyticsHandler.Productivity)
		analyticsGroup.GET("/contributions/:id", analyticsHandler.Contributions)
	}

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
