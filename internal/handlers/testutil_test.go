package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	audit *services.AuditService
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Donation{},
		&models.Claim{},
		&models.Review{},
		&models.Verification{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	auditService := services.NewAuditService(db)
	reputationService := services.NewReputationService(db)

	t.Cleanup(func() {
		auditService.Close()
		_ = sqlDB.Close()
	})

	authHandler := NewAuthHandler(db, auditService, nil)
	donationsHandler := NewDonationsHandler(db, auditService)
	claimsHandler := NewClaimsHandler(db, auditService)
	verificationsHandler := NewVerificationsHandler(db, auditService, nil)
	reviewsHandler := NewReviewsHandler(db, auditService, reputationService)
	adminHandler := NewAdminHandler(db, auditService, nil)
	statsHandler := NewStatsHandler(db)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 20 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/version", GetVersion)

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

	return &testEnv{app: app, db: db, audit: auditService}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole, verified bool) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Phone:        "555-0100",
		Role:         role,
		Verified:     verified,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestDonation(t *testing.T, db *gorm.DB, donor *models.User, foodName string, status models.DonationStatus) *models.Donation {
	t.Helper()

	donation := &models.Donation{
		FoodName:       foodName,
		Description:    "test donation",
		Quantity:       "2 bags",
		PickupLocation: "Main St",
		DonorEmail:     donor.Email,
		DonorName:      donor.Name,
		DonorPhone:     donor.Phone,
		Status:         status,
	}
	if err := db.Create(donation).Error; err != nil {
		t.Fatalf("failed creating test donation: %v", err)
	}

	return donation
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	return data
}
