package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"buildtrack/internal/auth"
	"buildtrack/internal/config"
	"buildtrack/internal/database"
	"buildtrack/internal/handlers"
	"buildtrack/internal/middleware"
	"buildtrack/internal/models"
	"buildtrack/internal/token"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("buildtrack_session", store))

	r.Use(middleware.InjectUser())

	signer := token.NewSigner([]byte(cfg.TokenSecret))
	handlers.Setup(signer, auth.NewVerifier(database.DB, signer, cfg.TokenMaxAge))

	// PUBLIC
	r.GET("/", handlers.IndexPage)
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.GET("/logout", handlers.Logout)
	r.GET("/unauthorized", handlers.Unauthorized)
	r.GET("/email-verification-required", handlers.EmailVerificationRequired)

	authed := r.Group("/")
	authed.Use(middleware.RequireAuth())

	// DASHBOARD
	// /dashboard issues a fresh signed token and bounces to the role-scoped
	// route. Everything under a :token/:role pair re-verifies in the handler.
	authed.GET("/dashboard", handlers.RedirectToDashboard)
	authed.GET("/resolve/:token", handlers.ResolveToken)
	authed.GET("/dashboard/:token/:role",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager, models.RoleEngineer),
		handlers.Dashboard,
	)
	authed.GET("/progress/:token/:role",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager, models.RoleEngineer),
		handlers.ProgressMonitoring,
	)

	// PROJECTS
	authed.GET("/projects/:token/list/:role",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager, models.RoleEngineer),
		handlers.ListProjects,
	)
	authed.POST("/projects/:token/create/:role/:project_type",
		middleware.RequireVerifiedEmail(),
		middleware.RequireRole(models.RoleEngineer, models.RoleOperationsManager),
		handlers.CreateProject,
	)
	authed.GET("/projects/:token/:role/:project_id",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager, models.RoleEngineer),
		handlers.ViewProject,
	)
	authed.POST("/projects/:token/:role/:project_id/edit",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager),
		handlers.UpdateProject,
	)
	authed.GET("/projects/:token/:role/:project_id/delete",
		middleware.RequireRole(models.RoleEngineer, models.RoleOperationsManager),
		handlers.ConfirmDeleteProject,
	)
	authed.POST("/projects/:token/:role/:project_id/delete",
		middleware.RequireVerifiedEmail(),
		middleware.RequireRole(models.RoleEngineer, models.RoleOperationsManager),
		handlers.DeleteProject,
	)
	authed.POST("/projects/:token/:role/:project_id/files",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager, models.RoleEngineer),
		handlers.UploadProjectFile,
	)

	// TASKS
	taskManagers := middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager)
	taskDeleters := middleware.RequireRole(models.RoleEngineer, models.RoleOperationsManager)

	authed.GET("/projects/:token/:role/:project_id/tasks", taskManagers, handlers.ListTasks)
	authed.POST("/projects/:token/:role/:project_id/tasks", taskManagers, handlers.CreateTask)
	authed.POST("/projects/:token/:role/:project_id/tasks/import", taskManagers, handlers.SaveImportedTasks)
	authed.POST("/projects/:token/:role/:project_id/tasks/:task_id/edit", taskManagers, handlers.UpdateTask)
	authed.GET("/projects/:token/:role/:project_id/tasks/:task_id/delete", taskDeleters, handlers.ConfirmDeleteTask)
	authed.POST("/projects/:token/:role/:project_id/tasks/:task_id/delete", taskDeleters, handlers.DeleteTask)
	authed.POST("/projects/:token/:role/:project_id/tasks/bulk-delete", taskDeleters, handlers.BulkDeleteTasks)

	// PROGRESS UPDATES
	// Submission is open to every verified role; review is OM/EG only.
	authed.POST("/progress/:token/:role/tasks/:task_id/submit",
		middleware.RequireRole(models.RoleProjectManager, models.RoleOperationsManager, models.RoleEngineer),
		handlers.SubmitProgressUpdate,
	)

	reviewers := middleware.RequireRole(models.RoleEngineer, models.RoleOperationsManager)
	authed.GET("/progress/review", reviewers, handlers.ReviewUpdates)
	authed.POST("/progress/review/:update_id/approve", reviewers, handlers.ApproveUpdate)
	authed.POST("/progress/review/:update_id/reject", reviewers, handlers.RejectUpdate)
	authed.GET("/progress/history", reviewers, handlers.ProgressHistory)

	// BUDGETS AND COSTING
	costing := middleware.RequireRole(models.RoleEngineer, models.RoleOperationsManager)

	authed.GET("/budgets", costing, handlers.ProjectCostingDashboard)
	authed.GET("/budgets/projects/:project_id", costing, handlers.ProjectBudgets)
	authed.POST("/budgets/projects/:project_id", costing, handlers.ProjectBudgets)
	authed.POST("/budgets/projects/:project_id/approve",
		middleware.RequireVerifiedEmail(), costing, handlers.SetApprovedBudget)
	authed.GET("/budgets/projects/:project_id/costs", costing, handlers.ListCosts)
	authed.POST("/budgets/projects/:project_id/costs", costing, handlers.CreateCost)
	authed.POST("/budgets/:budget_id/edit", costing, handlers.UpdateBudget)
	authed.GET("/budgets/:budget_id/delete", costing, handlers.ConfirmDeleteBudget)
	authed.POST("/budgets/:budget_id/delete", costing, handlers.DeleteBudget)
	authed.POST("/budgets/:budget_id/allocate", costing, handlers.AllocateFunds)
	authed.GET("/allocations/:allocation_id/delete", costing, handlers.ConfirmDeleteAllocation)
	authed.POST("/allocations/:allocation_id/delete", costing, handlers.DeleteAllocation)

	// USERS
	admins := middleware.RequireRole(models.RoleOperationsManager, models.RoleEngineer)
	authed.GET("/users/manage", admins, handlers.ManageUserProfiles)
	authed.POST("/users/manage/:profile_id", admins, handlers.ManageUserProfiles)
	authed.GET("/users/search-pms", admins, handlers.SearchProjectManagers)

	// AUDIT
	authed.GET("/audit", admins, handlers.ListAuditLogs)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
