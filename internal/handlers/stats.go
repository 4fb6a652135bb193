package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type StatsHandler struct {
	DB *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{DB: db}
}

// Impact is the public landing-page counter set. foodSaved is the
// rough estimate the platform has always shown: 2.5 kg per donation.
func (h *StatsHandler) Impact(c *fiber.Ctx) error {
	var totalDonations int64
	if err := h.DB.Model(&models.Donation{}).Count(&totalDonations).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing stats")
	}

	var totalUsers int64
	if err := h.DB.Model(&models.User{}).Where("role <> ?", models.UserRoleAdmin).Count(&totalUsers).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing stats")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"totalDonations": totalDonations,
		"totalUsers":     totalUsers,
		"foodSaved":      math.Round(float64(totalDonations) * 2.5),
	})
}
