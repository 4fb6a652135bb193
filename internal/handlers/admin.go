package handlers

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/internal/storage"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

// AdminHandler is the read-side aggregation and moderation surface. It
// owns no state of its own; everything is computed from the other
// components' tables.
type AdminHandler struct {
	DB        *gorm.DB
	Audit     *services.AuditService
	Documents *storage.DocumentStore
}

func NewAdminHandler(db *gorm.DB, audit *services.AuditService, documents *storage.DocumentStore) *AdminHandler {
	return &AdminHandler{DB: db, Audit: audit, Documents: documents}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	var (
		totalUsers           int64
		totalDonations       int64
		totalClaims          int64
		verifiedReceivers    int64
		pendingVerifications int64
		availableDonations   int64
		claimedDonations     int64
	)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&totalUsers, h.DB.Model(&models.User{}).Where("role <> ?", models.UserRoleAdmin)},
		{&totalDonations, h.DB.Model(&models.Donation{})},
		{&totalClaims, h.DB.Model(&models.Claim{})},
		{&verifiedReceivers, h.DB.Model(&models.User{}).Where("role = ? AND verified = ?", models.UserRoleReceiver, true)},
		{&pendingVerifications, h.DB.Model(&models.Verification{}).Where("status = ?", models.VerificationStatusPending)},
		{&availableDonations, h.DB.Model(&models.Donation{}).Where("status = ?", models.DonationStatusAvailable)},
		{&claimedDonations, h.DB.Model(&models.Donation{}).Where("status = ?", models.DonationStatusClaimed)},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed computing stats")
		}
	}

	claimRate := 0.0
	if totalDonations > 0 {
		claimRate = math.Round(float64(claimedDonations)/float64(totalDonations)*1000) / 10
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"totalUsers":           totalUsers,
		"totalDonations":       totalDonations,
		"totalClaims":          totalClaims,
		"verifiedReceivers":    verifiedReceivers,
		"pendingVerifications": pendingVerifications,
		"availableDonations":   availableDonations,
		"claimedDonations":     claimedDonations,
		"claimRate":            claimRate,
	})
}

// userWithVerification annotates a user row with the outcome of their
// verification request, mirroring what the moderation screen shows.
type userWithVerification struct {
	models.User
	VerificationStatus string  `json:"verificationStatus"`
	VerificationDate   *string `json:"verificationDate,omitempty"`
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))

	query := h.DB.Model(&models.User{}).Where("role <> ?", models.UserRoleAdmin).Order("created_at")
	if search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(role) LIKE ?",
			searchValue,
			searchValue,
			searchValue,
		)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	var verifications []models.Verification
	if err := h.DB.Find(&verifications).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing verifications")
	}

	verificationByEmail := make(map[string]models.Verification)
	for _, verification := range verifications {
		verificationByEmail[verification.UserEmail] = verification
	}

	annotated := make([]userWithVerification, 0, len(users))
	for _, user := range users {
		row := userWithVerification{User: user, VerificationStatus: "none"}
		if verification, ok := verificationByEmail[user.Email]; ok {
			row.VerificationStatus = string(verification.Status)
			if verification.ReviewedAt != nil {
				value := verification.ReviewedAt.Format("2006-01-02T15:04:05Z07:00")
				row.VerificationDate = &value
			}
		} else if user.Verified {
			row.VerificationStatus = string(models.VerificationStatusApproved)
		}
		annotated = append(annotated, row)
	}

	return utils.Success(c, fiber.StatusOK, annotated)
}

func (h *AdminHandler) ListDonations(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))

	query := h.DB.Model(&models.Donation{}).Order("created_at")
	if search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(food_name) LIKE ? OR LOWER(donor_email) LIKE ? OR LOWER(status) LIKE ?",
			searchValue,
			searchValue,
			searchValue,
		)
	}

	var donations []models.Donation
	if err := query.Find(&donations).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing donations")
	}

	return utils.Success(c, fiber.StatusOK, donations)
}

func (h *AdminHandler) ListClaims(c *fiber.Ctx) error {
	var claims []models.Claim
	if err := h.DB.Order("created_at").Find(&claims).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing claims")
	}
	return utils.Success(c, fiber.StatusOK, claims)
}

// DeleteUser removes the account and its verification records. The
// user's donations, claims and reviews are intentionally left in place;
// they are historical records referenced by other parties.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)
	email := normalizeEmail(c.Params("email"))

	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "User not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "Cannot delete the admin account")
	}

	var verifications []models.Verification
	if err := h.DB.Where("user_email = ?", email).Find(&verifications).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching verifications")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_email = ?", email).Delete(&models.Verification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if txErr != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	if h.Documents != nil {
		for _, verification := range verifications {
			if verification.DocumentKey != "" {
				if err := h.Documents.Delete(c.Context(), verification.DocumentKey); err != nil {
					logger.Error("verification_document_cleanup_failed", err, map[string]interface{}{
						"object_name": verification.DocumentKey,
					})
				}
			}
		}
	}

	if admin != nil {
		h.Audit.LogAsync(services.AuditEntry{
			UserID:       &admin.ID,
			Action:       "admin.user_delete",
			ResourceType: "user",
			ResourceID:   &user.ID,
			Details: map[string]interface{}{
				"email": user.Email,
			},
			IPAddress: c.IP(),
			RequestID: getRequestID(c),
		})
	}

	return utils.SuccessMessage(c, fiber.StatusOK, "User deleted successfully", nil)
}

// ToggleVerified flips a user's verified flag directly, bypassing the
// verification workflow. It is an explicit admin override.
func (h *AdminHandler) ToggleVerified(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)
	email := normalizeEmail(c.Params("email"))

	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "User not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "Cannot change verification of the admin account")
	}

	if err := h.DB.Model(&user).Update("verified", !user.Verified).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}
	user.Verified = !user.Verified

	if admin != nil {
		h.Audit.LogAsync(services.AuditEntry{
			UserID:       &admin.ID,
			Action:       "admin.user_verification_toggle",
			ResourceType: "user",
			ResourceID:   &user.ID,
			Details: map[string]interface{}{
				"email":    user.Email,
				"verified": user.Verified,
			},
			IPAddress: c.IP(),
			RequestID: getRequestID(c),
		})
	}

	message := "User verified successfully"
	if !user.Verified {
		message = "User unverified successfully"
	}

	return utils.SuccessMessage(c, fiber.StatusOK, message, fiber.Map{"user": user})
}
