package server

import (
	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/config"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/handlers"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/middleware"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "review_session"

func NewRouter(cfg *config.Config, engine *service.Engine, table authz.Table) *gin.Engine {
	r := gin.Default()

	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	h := handlers.New(engine, tokens)

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: int(cfg.JWTTTL.Seconds())})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(middleware.RequestID())
	r.Use(middleware.InjectUser(engine.DB(), tokens, table))

	r.GET("/health", handlers.Health)
	r.POST("/auth/login", h.Login)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	// auth
	auth.GET("/auth/me", h.Me)
	auth.POST("/auth/logout", h.Logout)
	auth.POST("/users",
		middleware.RequireCapability(authz.OpUserCreate),
		h.CreateUser,
	)

	// projects
	auth.GET("/projects", h.ListProjects)
	auth.POST("/projects", h.CreateProject)
	auth.GET("/projects/:id", h.GetProject)
	auth.POST("/projects/:id/status", h.ChangeProjectStatus)

	// templates and assignments
	auth.GET("/templates", h.ListTemplates)
	auth.POST("/templates", h.CreateTemplate)
	auth.GET("/templates/:id", h.GetTemplate)
	auth.GET("/projects/:id/assignments", h.ListAssignments)
	auth.POST("/projects/:id/assignments", h.AssignTemplate)
	auth.GET("/assignments/:id", h.GetAssignment)
	auth.POST("/assignments/:id/submit", h.SubmitAssignment)
	auth.GET("/assignments/:id/history", h.AssignmentHistory)
	auth.POST("/submissions/:id/review", h.ReviewSubmission)
	auth.GET("/submissions/:id/download", h.DownloadSubmission)

	// checklists
	auth.GET("/projects/:id/checklists", h.ListChecklists)
	auth.POST("/projects/:id/checklists", h.CreateChecklist)
	auth.GET("/checklists/:id", h.GetChecklist)
	auth.POST("/checklists/:id/items/:itemId", h.UpdateItem)
	auth.POST("/checklists/:id/items/:itemId/files", h.AttachFile)
	auth.POST("/checklists/:id/submit-for-review", h.SubmitChecklist)
	auth.POST("/checklists/:id/verify", h.VerifyChecklist)
	auth.POST("/checklists/:id/close", h.FinalizeChecklist)
	auth.POST("/checklists/:id/revise", h.ReviseChecklist)

	// checklist files
	auth.POST("/files/:id/upload", h.UploadFile)
	auth.POST("/files/:id/submit", h.SubmitFile)
	auth.POST("/files/:id/under-review", h.StartFileReview)
	auth.POST("/files/:id/send-back", h.SendBackFile)
	auth.POST("/files/:id/verify", h.VerifyFile)
	auth.GET("/files/:id/history", h.FileHistory)

	// tasks
	auth.GET("/projects/:id/tasks", h.ListTasks)
	auth.POST("/projects/:id/tasks", h.CreateTask)
	auth.GET("/tasks/:id", h.GetTask)
	auth.POST("/tasks/:id/status", h.SetTaskStatus)

	// locks
	auth.GET("/lockables/:kind/:id", h.GetLock)
	auth.POST("/lockables/:kind/:id/manual-lock", h.ManualLock)
	auth.POST("/lockables/:kind/:id/auto-lock", h.AutoLock)
	auth.POST("/lockables/:kind/:id/request-unlock", h.RequestUnlock)
	auth.POST("/lockables/:kind/:id/review-unlock", h.ReviewPendingUnlock)
	auth.POST("/lockables/:kind/:id/direct-unlock", h.DirectUnlock)
	auth.GET("/unlock-requests", h.ListUnlockRequests)
	auth.POST("/unlock-requests/:id/review", h.ReviewUnlockRequest)

	// audit
	auth.GET("/audit",
		middleware.RequireCapability(authz.OpAuditView),
		h.ListAuditLogs,
	)

	return r
}
