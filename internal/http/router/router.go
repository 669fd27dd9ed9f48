package router

import (
	"github.com/gin-gonic/gin"

	"github.com/gigscape/backend/internal/config"
	"github.com/gigscape/backend/internal/http/handlers"
	"github.com/gigscape/backend/internal/http/middleware"
	"github.com/gigscape/backend/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Verification *handlers.VerificationHandler
	Job          *handlers.JobHandler
	Catalog      *handlers.CatalogHandler
	Proposal     *handlers.ProposalHandler
	Contract     *handlers.ContractHandler
	Milestone    *handlers.MilestoneHandler
	Wallet       *handlers.WalletHandler
	Transaction  *handlers.TransactionHandler
	Review       *handlers.ReviewHandler
	Notification *handlers.NotificationHandler
	Chat         *handlers.ChatHandler
	WS           *handlers.WSHandler
	Health       *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	// Auth endpoints get a tighter rate limit than the rest of the API.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/me", h.Auth.Me)
		protectedAuth.GET("/sessions", h.Auth.ListSessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), h.Auth.DeleteSession)
	}

	verificationGroup := api.Group("/verification")
	verificationGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		verificationGroup.POST("/email/confirm", h.Verification.VerifyEmail)
		verificationGroup.POST("/password/request", h.Verification.RequestPasswordReset)
		verificationGroup.POST("/password/reset", h.Verification.ResetPassword)
	}
	api.POST("/verification/email/request",
		middleware.AuthMiddleware(tokenManager), h.Verification.RequestEmailVerification)

	// Public routes
	api.GET("/ws", h.WS.Handle)
	api.GET("/jobs", h.Job.List)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), h.Job.Get)
	api.GET("/jobs/:id/reviews", middleware.UUIDValidator("id"), h.Review.ListByJob)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), h.Review.ListByUser)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), h.Review.Rating)
	api.GET("/catalog/categories", h.Catalog.ListCategories)
	api.GET("/catalog/skills", h.Catalog.ListSkills)

	// Authenticated routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/jobs", h.Job.Create)
		protected.PUT("/jobs/:id", middleware.UUIDValidator("id"), h.Job.Update)
		protected.POST("/jobs/:id/close", middleware.UUIDValidator("id"), h.Job.Close)
		protected.DELETE("/jobs/:id", middleware.UUIDValidator("id"), h.Job.Delete)
		protected.GET("/jobs/:id/proposals", middleware.UUIDValidator("id"), h.Proposal.ListByJob)

		protected.POST("/proposals", h.Proposal.Submit)
		protected.GET("/proposals", h.Proposal.ListMine)
		protected.GET("/proposals/:id", middleware.UUIDValidator("id"), h.Proposal.Get)
		protected.POST("/proposals/:id/withdraw", middleware.UUIDValidator("id"), h.Proposal.Withdraw)
		protected.POST("/proposals/:id/reject", middleware.UUIDValidator("id"), h.Proposal.Reject)
		protected.POST("/proposals/:id/accept", middleware.UUIDValidator("id"), h.Contract.AcceptProposal)
		protected.DELETE("/proposals/:id", middleware.UUIDValidator("id"), h.Proposal.Delete)

		protected.GET("/contracts", h.Contract.List)
		protected.GET("/contracts/:id", middleware.UUIDValidator("id"), h.Contract.Get)
		protected.PATCH("/contracts/:id", middleware.UUIDValidator("id"), h.Contract.Update)
		protected.PATCH("/contracts/:id/status", middleware.UUIDValidator("id"), h.Contract.UpdateStatus)
		protected.POST("/contracts/:id/fund", middleware.UUIDValidator("id"), h.Contract.FundEscrow)
		protected.POST("/contracts/:id/cancel", middleware.UUIDValidator("id"), h.Contract.Cancel)
		protected.POST("/contracts/:id/reconcile", middleware.UUIDValidator("id"), h.Contract.Reconcile)
		protected.GET("/contracts/:id/milestones", middleware.UUIDValidator("id"), h.Milestone.ListByContract)

		protected.POST("/milestones", h.Milestone.Create)
		protected.GET("/milestones/:id", middleware.UUIDValidator("id"), h.Milestone.Get)
		protected.PATCH("/milestones/:id", middleware.UUIDValidator("id"), h.Milestone.Update)
		protected.DELETE("/milestones/:id", middleware.UUIDValidator("id"), h.Milestone.Delete)
		protected.POST("/milestones/:id/start", middleware.UUIDValidator("id"), h.Milestone.Start)
		protected.POST("/milestones/:id/complete", middleware.UUIDValidator("id"), h.Milestone.Complete)
		protected.POST("/milestones/:id/cancel", middleware.UUIDValidator("id"), h.Milestone.Cancel)
		protected.POST("/milestones/:id/deliverables", middleware.UUIDValidator("id"), h.Milestone.AttachDeliverable)

		protected.GET("/wallet", h.Wallet.Get)
		protected.POST("/wallet", h.Wallet.Create)
		protected.POST("/wallet/deposit", h.Wallet.Deposit)
		protected.POST("/wallet/withdraw", h.Wallet.Withdraw)
		protected.GET("/wallet/transactions", h.Wallet.ListTransactions)

		protected.POST("/payments/deposit", h.Transaction.CreateDeposit)
		protected.GET("/payments", h.Transaction.List)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), h.Transaction.Get)
		protected.POST("/payments/:id/confirm", middleware.UUIDValidator("id"), h.Transaction.Confirm)
		protected.POST("/payments/:id/refund", middleware.UUIDValidator("id"), h.Transaction.Refund)
		protected.POST("/payments/:id/fail", middleware.UUIDValidator("id"), h.Transaction.MarkFailed)

		protected.POST("/reviews", h.Review.Create)
		protected.PATCH("/reviews/:id", middleware.UUIDValidator("id"), h.Review.Update)
		protected.DELETE("/reviews/:id", middleware.UUIDValidator("id"), h.Review.Delete)

		protected.GET("/notifications", h.Notification.List)
		protected.GET("/notifications/unread", h.Notification.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkRead)
		protected.POST("/notifications/read-all", h.Notification.MarkAllRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), h.Notification.Delete)

		protected.POST("/chat/rooms", h.Chat.OpenRoom)
		protected.GET("/chat/rooms", h.Chat.ListRooms)
		protected.GET("/chat/rooms/:id/messages", middleware.UUIDValidator("id"), h.Chat.History)
		protected.POST("/chat/rooms/:id/messages", middleware.UUIDValidator("id"), h.Chat.Send)
		protected.GET("/chat/unread", h.Chat.CountUnread)
		protected.DELETE("/chat/messages/:id", middleware.UUIDValidator("id"), h.Chat.DeleteMessage)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireAdmin())
	{
		admin.GET("/stats/jobs", h.Job.Stats)
		admin.GET("/stats/contracts", h.Contract.Stats)
		admin.GET("/stats/transactions", h.Transaction.Stats)

		admin.GET("/users", h.Auth.ListUsers)
		admin.GET("/proposals", h.Proposal.AdminList)
		admin.GET("/milestones", h.Milestone.AdminList)
		admin.GET("/reviews", h.Review.AdminList)
		admin.DELETE("/contracts/:id", middleware.UUIDValidator("id"), h.Contract.Delete)

		admin.POST("/payments/manual", h.Transaction.CreateManual)
		admin.PATCH("/payments/:id/status", middleware.UUIDValidator("id"), h.Transaction.AdminUpdateStatus)

		admin.POST("/catalog/categories", h.Catalog.CreateCategory)
		admin.DELETE("/catalog/categories/:id", middleware.UUIDValidator("id"), h.Catalog.DeleteCategory)
		admin.POST("/catalog/skills", h.Catalog.CreateSkill)
		admin.DELETE("/catalog/skills/:id", middleware.UUIDValidator("id"), h.Catalog.DeleteSkill)
	}

	return r
}
