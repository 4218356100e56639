package server

import (
	"net/http"

	"site-projects/internal/config"
	"site-projects/internal/handlers"
	"site-projects/internal/middleware"
	"site-projects/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 12 * 60 * 60, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("site_session", store))

	r.Use(middleware.InjectUser(h.DB, h.Tokens))

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")

	// AUTH
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.POST("/auth/token", h.IssueToken)

	authed := api.Group("/")
	authed.Use(middleware.RequireAuth())

	staff := []models.UserRole{models.RoleAdmin, models.RoleEngineer, models.RoleFinance}
	admin := middleware.RequireRole(models.RoleAdmin)
	adminOrEngineer := middleware.RequireRole(models.RoleAdmin, models.RoleEngineer)

	authed.GET("/me", h.Me)

	// ПОЛЬЗОВАТЕЛИ
	authed.POST("/users", admin, h.CreateUser)
	authed.GET("/users", adminOrEngineer, h.ListUsers)

	// КЛИЕНТЫ
	authed.GET("/clients", middleware.RequireRole(staff...), h.ListClients)
	authed.POST("/clients", admin, h.CreateClient)
	authed.GET("/clients/:id", middleware.RequireRole(staff...), h.GetClient)
	authed.PUT("/clients/:id", admin, h.UpdateClient)

	// ПРОЕКТЫ
	projects := authed.Group("/projects")
	projects.GET("", middleware.RequireRole(staff...), h.ListProjects)
	projects.POST("", adminOrEngineer, h.CreateProject)
	projects.GET("/:id", h.GetProject)
	projects.PUT("/:id", adminOrEngineer, h.UpdateProject)
	projects.DELETE("/:id", admin, h.DeleteProject)
	projects.PATCH("/:id/status", adminOrEngineer, h.ChangeProjectStatus)
	projects.PATCH("/:id/progress", adminOrEngineer, h.UpdateProjectProgress)
	projects.GET("/:id/progress", h.ProjectProgressUpdates)
	projects.GET("/:id/history", middleware.RequireRole(staff...), h.ShowProjectHistory)
	projects.POST("/:id/assign", admin, h.AssignEngineer)
	projects.POST("/:id/team", admin, h.AssignTeam)
	projects.GET("/:id/team", h.GetProjectTeam)

	authed.GET("/driver/projects", middleware.RequireRole(models.RoleDriver), h.DriverProjects)

	// ПОСЕЩАЕМОСТЬ
	att := authed.Group("/attendance")
	att.POST("/project/:projectId/user/:userId", middleware.RequireRole(models.RoleDriver), h.MarkProjectAttendance)
	att.GET("/project/:projectId/user/:userId", h.GetUserProjectAttendance)
	att.GET("/project/:projectId", adminOrEngineer, h.GetProjectAttendance)
	att.GET("/project/:projectId/today",
		middleware.RequireRole(models.RoleAdmin, models.RoleEngineer, models.RoleDriver),
		h.GetTodayProjectAttendance,
	)
	att.GET("/project/:projectId/summary", adminOrEngineer, h.GetAttendanceSummary)
	att.POST("/user/:userId", h.MarkUserAttendance)
	att.GET("/user/:userId", h.GetUserAttendance)

	// РАСХОДЫ
	finance := middleware.RequireRole(staff...)
	exp := authed.Group("/expenses")
	exp.GET("/project/:projectId/labor-data", finance, h.GetProjectLaborData)
	exp.POST("/project/:projectId", finance, h.CreateExpense)
	exp.GET("/project/:projectId", finance, h.ListProjectExpenses)
	exp.GET("/project/:projectId/summary", finance, h.GetExpenseSummary)
	exp.GET("/:id", finance, h.GetExpense)
	exp.PUT("/:id", finance, h.UpdateExpense)
	exp.DELETE("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleFinance), h.DeleteExpense)

	// АУДИТ
	authed.GET("/audit", admin, h.ListAuditLogs)

	return r
}
