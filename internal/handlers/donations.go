package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type DonationsHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewDonationsHandler(db *gorm.DB, audit *services.AuditService) *DonationsHandler {
	return &DonationsHandler{DB: db, Audit: audit}
}

type createDonationRequest struct {
	FoodName       string     `json:"foodName"`
	Description    string     `json:"description"`
	Quantity       string     `json:"quantity"`
	PickupLocation string     `json:"pickupLocation"`
	ExpiryDate     *time.Time `json:"expiryDate"`
}

func (h *DonationsHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if user.Role != models.UserRoleDonor {
		return utils.Error(c, fiber.StatusForbidden, "Only donors can create donations")
	}

	var req createDonationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.FoodName = strings.TrimSpace(req.FoodName)
	req.Quantity = strings.TrimSpace(req.Quantity)
	req.PickupLocation = strings.TrimSpace(req.PickupLocation)

	if req.FoodName == "" || req.Quantity == "" || req.PickupLocation == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Food name, quantity and pickup location are required")
	}

	donation := models.Donation{
		FoodName:       req.FoodName,
		Description:    strings.TrimSpace(req.Description),
		Quantity:       req.Quantity,
		PickupLocation: req.PickupLocation,
		ExpiryDate:     req.ExpiryDate,
		DonorEmail:     user.Email,
		DonorName:      user.Name,
		DonorPhone:     user.Phone,
		Status:         models.DonationStatusAvailable,
	}

	if err := h.DB.Create(&donation).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating donation")
	}

	logger.InfoWithUser(user.ID.String(), "donation_created", map[string]interface{}{
		"donation_id": donation.ID.String(),
		"food_name":   donation.FoodName,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "donation.create",
		ResourceType: "donation",
		ResourceID:   &donation.ID,
		Details: map[string]interface{}{
			"food_name": donation.FoodName,
			"quantity":  donation.Quantity,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.SuccessMessage(c, fiber.StatusCreated, "Donation created successfully", fiber.Map{"donation": donation})
}

func (h *DonationsHandler) ListAvailable(c *fiber.Ctx) error {
	var donations []models.Donation
	if err := h.DB.Where("status = ?", models.DonationStatusAvailable).Order("created_at").Find(&donations).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing donations")
	}
	return utils.Success(c, fiber.StatusOK, donations)
}

func (h *DonationsHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var donations []models.Donation
	if err := h.DB.Where("donor_email = ?", user.Email).Order("created_at").Find(&donations).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing donations")
	}
	return utils.Success(c, fiber.StatusOK, donations)
}

type updateStatusRequest struct {
	Status models.DonationStatus `json:"status"`
}

func (h *DonationsHandler) UpdateStatus(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	donationID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid donation id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !models.ValidDonationStatus(req.Status) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid donation status")
	}
	if req.Status == models.DonationStatusClaimed {
		return utils.Error(c, fiber.StatusBadRequest, "Status cannot be set to claimed directly")
	}

	var donation models.Donation
	if err := h.DB.First(&donation, "id = ?", donationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "Donation not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching donation")
	}

	if donation.DonorEmail != user.Email {
		return utils.Error(c, fiber.StatusForbidden, "You can only update your own donations")
	}
	if donation.Status == models.DonationStatusClaimed {
		return utils.Error(c, fiber.StatusConflict, "Cannot change the status of a claimed donation")
	}

	if err := h.DB.Model(&donation).Update("status", req.Status).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating donation")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "donation.status_update",
		ResourceType: "donation",
		ResourceID:   &donation.ID,
		Details: map[string]interface{}{
			"status": string(req.Status),
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	donation.Status = req.Status
	return utils.SuccessMessage(c, fiber.StatusOK, "Donation status updated successfully", fiber.Map{"donation": donation})
}

func (h *DonationsHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	donationID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid donation id")
	}

	var donation models.Donation
	if err := h.DB.First(&donation, "id = ?", donationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "Donation not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching donation")
	}

	if donation.DonorEmail != user.Email {
		return utils.Error(c, fiber.StatusForbidden, "You can only delete your own donations")
	}
	if donation.Status == models.DonationStatusClaimed {
		return utils.Error(c, fiber.StatusConflict, "Cannot delete claimed donations")
	}

	if err := h.DB.Delete(&donation).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting donation")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "donation.delete",
		ResourceType: "donation",
		ResourceID:   &donation.ID,
		Details: map[string]interface{}{
			"food_name": donation.FoodName,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.SuccessMessage(c, fiber.StatusOK, "Donation deleted successfully", nil)
}
