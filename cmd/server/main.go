package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/schizophrenicman/Food-Waste-Management/internal/config"
	"github.com/schizophrenicman/Food-Waste-Management/internal/database"
	"github.com/schizophrenicman/Food-Waste-Management/internal/handlers"
	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/internal/storage"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Admin)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	// Verification documents go to MinIO when an endpoint is
	// configured; otherwise they stay inline in the database.
	var documents *storage.DocumentStore
	if cfg.MinIO.Endpoint != "" {
		documents, err = storage.NewDocumentStore(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := documents.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
	}

	auditService := services.NewAuditService(db)
	reputationService := services.NewReputationService(db)

	authHandler := handlers.NewAuthHandler(db, auditService, documents)
	donationsHandler := handlers.NewDonationsHandler(db, auditService)
	claimsHandler := handlers.NewClaimsHandler(db, auditService)
	verificationsHandler := handlers.NewVerificationsHandler(db, auditService, documents)
	reviewsHandler := handlers.NewReviewsHandler(db, auditService, reputationService)
	adminHandler := handlers.NewAdminHandler(db, auditService, documents)
	statsHandler := handlers.NewStatsHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 20 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/version", handlers.GetVersion)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/admin/login", authHandler.AdminLogin)
	authRoutes.Post("/logout", authMiddleware.RequireAuth, authHandler.Logout)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)

	donationRoutes := api.Group("/donations", authMiddleware.RequireAuth)
	donationRoutes.Post("/", donationsHandler.Create)
	donationRoutes.Get("/available", donationsHandler.ListAvailable)
	donationRoutes.Get("/mine", donationsHandler.ListMine)
	donationRoutes.Put("/:id/status", donationsHandler.UpdateStatus)
	donationRoutes.Delete("/:id", donationsHandler.Delete)
	donationRoutes.Post("/:id/claim", claimsHandler.Claim)

	claimRoutes := api.Group("/claims", authMiddleware.RequireAuth)
	claimRoutes.Get("/mine", claimsHandler.ListMine)
	claimRoutes.Get("/received", claimsHandler.ListReceived)

	reviewRoutes := api.Group("/reviews")
	reviewRoutes.Get("/top-donor", reviewsHandler.TopDonor)
	reviewRoutes.Post("/", authMiddleware.RequireAuth, reviewsHandler.Submit)
	reviewRoutes.Get("/donor/:email", authMiddleware.RequireAuth, reviewsHandler.ListForDonor)

	api.Get("/stats/impact", statsHandler.Impact)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/stats", adminHandler.Stats)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Delete("/users/:email", adminHandler.DeleteUser)
	adminRoutes.Put("/users/:email/verification", adminHandler.ToggleVerified)
	adminRoutes.Get("/donations", adminHandler.ListDonations)
	adminRoutes.Get("/claims", adminHandler.ListClaims)
	adminRoutes.Get("/verifications", verificationsHandler.List)
	adminRoutes.Put("/verifications/:id", verificationsHandler.Decide)
	adminRoutes.Get("/verifications/:id/document", verificationsHandler.Document)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
		"driver":  cfg.DB.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
