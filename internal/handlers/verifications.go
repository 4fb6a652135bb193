package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/internal/storage"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type VerificationsHandler struct {
	DB        *gorm.DB
	Audit     *services.AuditService
	Documents *storage.DocumentStore
}

func NewVerificationsHandler(db *gorm.DB, audit *services.AuditService, documents *storage.DocumentStore) *VerificationsHandler {
	return &VerificationsHandler{DB: db, Audit: audit, Documents: documents}
}

// List returns verification requests, filtered to pending by default.
// ?status=all returns every record regardless of outcome.
func (h *VerificationsHandler) List(c *fiber.Ctx) error {
	status := strings.ToLower(strings.TrimSpace(c.Query("status", "pending")))

	query := h.DB.Model(&models.Verification{}).Order("created_at")
	switch status {
	case "all":
	case string(models.VerificationStatusPending), string(models.VerificationStatusApproved), string(models.VerificationStatusRejected):
		query = query.Where("status = ?", status)
	default:
		return utils.Error(c, fiber.StatusBadRequest, "invalid verification status filter")
	}

	var verifications []models.Verification
	if err := query.Find(&verifications).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing verifications")
	}
	return utils.Success(c, fiber.StatusOK, verifications)
}

type decideRequest struct {
	Decision models.VerificationStatus `json:"decision"`
	Notes    string                    `json:"notes"`
}

// Decide moves a pending verification to approved or rejected. The
// decision is terminal: records are never re-decided. Approval marks
// the referenced receiver verified.
func (h *VerificationsHandler) Decide(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	verificationID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid verification id")
	}

	var req decideRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Decision != models.VerificationStatusApproved && req.Decision != models.VerificationStatusRejected {
		return utils.Error(c, fiber.StatusBadRequest, "Decision must be approved or rejected")
	}

	var verification models.Verification
	if err := h.DB.First(&verification, "id = ?", verificationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "Verification not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching verification")
	}

	if verification.Decided() {
		return utils.Error(c, fiber.StatusConflict, "Verification has already been reviewed")
	}

	now := time.Now().UTC()
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":      req.Decision,
			"admin_notes": req.Notes,
			"reviewed_at": now,
		}
		if err := tx.Model(&verification).Updates(updates).Error; err != nil {
			return err
		}

		if req.Decision == models.VerificationStatusApproved {
			return tx.Model(&models.User{}).
				Where("email = ?", verification.UserEmail).
				Update("verified", true).Error
		}
		return nil
	})
	if txErr != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating verification")
	}

	verification.Status = req.Decision
	verification.AdminNotes = req.Notes
	verification.ReviewedAt = &now

	logger.Info("verification_decided", map[string]interface{}{
		"verification_id": verification.ID.String(),
		"user_email":      verification.UserEmail,
		"decision":        string(req.Decision),
	})

	if admin != nil {
		h.Audit.LogAsync(services.AuditEntry{
			UserID:       &admin.ID,
			Action:       "verification.decide",
			ResourceType: "verification",
			ResourceID:   &verification.ID,
			Details: map[string]interface{}{
				"user_email": verification.UserEmail,
				"decision":   string(req.Decision),
			},
			IPAddress: c.IP(),
			RequestID: getRequestID(c),
		})
	}

	message := "User verification approved successfully"
	if req.Decision == models.VerificationStatusRejected {
		message = "User verification rejected"
	}

	return utils.SuccessMessage(c, fiber.StatusOK, message, fiber.Map{"verification": verification})
}

// Document serves the uploaded verification document for admin review,
// either as a presigned object-store URL or as the inline payload.
func (h *VerificationsHandler) Document(c *fiber.Ctx) error {
	verificationID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid verification id")
	}

	var verification models.Verification
	if err := h.DB.First(&verification, "id = ?", verificationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "Verification not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching verification")
	}

	if !verification.HasDocument() {
		return utils.Error(c, fiber.StatusNotFound, "No document attached to this verification")
	}

	if verification.DocumentKey != "" && h.Documents != nil {
		url, err := h.Documents.PresignedGetURL(c.Context(), verification.DocumentKey, 15*time.Minute)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed generating document URL")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"name": verification.DocumentName,
			"type": verification.DocumentType,
			"url":  url,
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"name": verification.DocumentName,
		"type": verification.DocumentType,
		"data": verification.DocumentData,
	})
}
