package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type ClaimsHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewClaimsHandler(db *gorm.DB, audit *services.AuditService) *ClaimsHandler {
	return &ClaimsHandler{DB: db, Audit: audit}
}

var (
	errDonationNotFound    = errors.New("donation not found")
	errDonationUnavailable = errors.New("donation unavailable")
)

// Claim flips an available donation to claimed and writes the claim
// snapshot in one transaction. The status flip is guarded by a
// conditional update so two racing claims produce exactly one winner.
func (h *ClaimsHandler) Claim(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if user.Role != models.UserRoleReceiver {
		return utils.Error(c, fiber.StatusForbidden, "Only receivers can claim donations")
	}
	if !user.Verified {
		return utils.Error(c, fiber.StatusForbidden, "Your account must be verified to claim donations")
	}

	donationID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid donation id")
	}

	now := time.Now().UTC()
	var claim models.Claim

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var donation models.Donation
		if err := tx.First(&donation, "id = ?", donationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errDonationNotFound
			}
			return err
		}

		if donation.Status != models.DonationStatusAvailable {
			return errDonationUnavailable
		}

		result := tx.Model(&models.Donation{}).
			Where("id = ? AND status = ?", donationID, models.DonationStatusAvailable).
			Updates(map[string]interface{}{
				"status":     models.DonationStatusClaimed,
				"claimed_by": user.Email,
				"claimed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errDonationUnavailable
		}

		claim = models.Claim{
			DonationID:     donation.ID,
			ReceiverEmail:  user.Email,
			ReceiverName:   user.Name,
			ReceiverPhone:  user.Phone,
			DonorEmail:     donation.DonorEmail,
			DonorName:      donation.DonorName,
			FoodName:       donation.FoodName,
			Quantity:       donation.Quantity,
			PickupLocation: donation.PickupLocation,
			ClaimedAt:      now,
		}
		return tx.Create(&claim).Error
	})

	switch {
	case txErr == nil:
	case errors.Is(txErr, errDonationNotFound):
		return utils.Error(c, fiber.StatusNotFound, "Donation not found")
	case errors.Is(txErr, errDonationUnavailable):
		return utils.Error(c, fiber.StatusConflict, "This donation is no longer available")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "failed claiming donation")
	}

	logger.InfoWithUser(user.ID.String(), "donation_claimed", map[string]interface{}{
		"donation_id": donationID.String(),
		"claim_id":    claim.ID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "donation.claim",
		ResourceType: "claim",
		ResourceID:   &claim.ID,
		Details: map[string]interface{}{
			"donation_id": donationID.String(),
			"donor_email": claim.DonorEmail,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.SuccessMessage(c, fiber.StatusCreated,
		"Donation claimed successfully! Contact the donor to arrange pickup.",
		fiber.Map{"claim": claim})
}

// ListMine returns the claims the session receiver has made.
func (h *ClaimsHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var claims []models.Claim
	if err := h.DB.Where("receiver_email = ?", user.Email).Order("created_at").Find(&claims).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing claims")
	}
	return utils.Success(c, fiber.StatusOK, claims)
}

// ListReceived returns the claims made against the session donor's
// donations.
func (h *ClaimsHandler) ListReceived(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var claims []models.Claim
	if err := h.DB.Where("donor_email = ?", user.Email).Order("created_at").Find(&claims).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing claims")
	}
	return utils.Success(c, fiber.StatusOK, claims)
}
