package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gigscape/backend/internal/config"
	"github.com/gigscape/backend/internal/db"
	"github.com/gigscape/backend/internal/goroutine"
	httpHandlers "github.com/gigscape/backend/internal/http/handlers"
	httpRouter "github.com/gigscape/backend/internal/http/router"
	"github.com/gigscape/backend/internal/logger"
	"github.com/gigscape/backend/internal/payments"
	"github.com/gigscape/backend/internal/repository"
	"github.com/gigscape/backend/internal/service"
	"github.com/gigscape/backend/internal/storage"
	"github.com/gigscape/backend/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load configuration: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: failed to connect to the database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	fileStorage, err := storage.NewFileStorage(cfg.FileStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: failed to prepare file storage: %v", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	verificationRepo := repository.NewVerificationRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	contractRepo := repository.NewContractRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	transactionRepo := repository.NewTransactionRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	chatRepo := repository.NewChatRepository(dbConn)

	// WebSocket hub. Notification persistence is wired below, once the
	// notification service exists.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Services.
	notificationService := service.NewNotificationService(notificationRepo)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))

	verificationService := service.NewVerificationService(verificationRepo, userRepo, cfg.VerificationTTL, cfg.PasswordResetTTL)
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		sweepExpiredTokens(ctx, verificationService)
	})
	authService := service.NewAuthService(userRepo, tokenManager, verificationService)
	catalogService := service.NewCatalogService(catalogRepo)
	jobService := service.NewJobService(jobRepo)
	proposalService := service.NewProposalService(proposalRepo, jobRepo, hub)
	walletService := service.NewWalletService(walletRepo, cfg.DefaultCurrency)
	contractService := service.NewContractService(contractRepo, proposalRepo, jobRepo, milestoneRepo, walletRepo, hub)
	milestoneService := service.NewMilestoneService(milestoneRepo, contractRepo, contractService, fileStorage, hub)
	reviewService := service.NewReviewService(reviewRepo, contractRepo)
	chatService := service.NewChatService(chatRepo, userRepo, hub)

	// Stripe is optional; without a key card deposits return an error.
	var provider service.PaymentProvider
	if stripe := payments.NewStripeClient(cfg.StripeAPIBase, cfg.StripeSecretKey); stripe != nil {
		provider = stripe
	}
	transactionService := service.NewTransactionService(transactionRepo, walletRepo, provider, hub, cfg.DefaultCurrency)

	// HTTP handlers.
	h := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Verification: httpHandlers.NewVerificationHandler(verificationService, authService),
		Job:          httpHandlers.NewJobHandler(jobService),
		Catalog:      httpHandlers.NewCatalogHandler(catalogService),
		Proposal:     httpHandlers.NewProposalHandler(proposalService),
		Contract:     httpHandlers.NewContractHandler(contractService),
		Milestone:    httpHandlers.NewMilestoneHandler(milestoneService),
		Wallet:       httpHandlers.NewWalletHandler(walletService),
		Transaction:  httpHandlers.NewTransactionHandler(transactionService),
		Review:       httpHandlers.NewReviewHandler(reviewService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		Chat:         httpHandlers.NewChatHandler(chatService),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
		Health:       httpHandlers.NewHealthHandler(dbConn),
	}

	engine := httpRouter.SetupRouter(cfg, h, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

// sweepExpiredTokens prunes expired verification tokens hourly until shutdown.
func sweepExpiredTokens(ctx context.Context, verification *service.VerificationService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := verification.SweepExpired(ctx); err != nil {
				log.Printf("main: verification token sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("main: removed %d expired verification tokens", n)
			}
		}
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: failed to close the database: %v", err)
	}
}
