package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type ReviewsHandler struct {
	DB         *gorm.DB
	Audit      *services.AuditService
	Reputation *services.ReputationService
}

func NewReviewsHandler(db *gorm.DB, audit *services.AuditService, reputation *services.ReputationService) *ReviewsHandler {
	return &ReviewsHandler{DB: db, Audit: audit, Reputation: reputation}
}

type submitReviewRequest struct {
	DonorEmail string `json:"donorEmail"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (h *ReviewsHandler) Submit(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if user.Role != models.UserRoleReceiver {
		return utils.Error(c, fiber.StatusForbidden, "Only receivers can submit reviews")
	}

	var req submitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.DonorEmail = normalizeEmail(req.DonorEmail)

	if req.DonorEmail == "" || req.Rating == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "Donor email and rating are required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return utils.Error(c, fiber.StatusBadRequest, "Rating must be between 1 and 5")
	}

	var donor models.User
	if err := h.DB.First(&donor, "email = ? AND role = ?", req.DonorEmail, models.UserRoleDonor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "Donor not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching donor")
	}

	var existingCount int64
	if err := h.DB.Model(&models.Review{}).
		Where("reviewer_email = ? AND donor_email = ?", user.Email, req.DonorEmail).
		Count(&existingCount).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing review")
	}
	if existingCount > 0 {
		return utils.Error(c, fiber.StatusConflict, "You have already reviewed this donor")
	}

	review := models.Review{
		DonorEmail:    req.DonorEmail,
		ReviewerEmail: user.Email,
		ReviewerName:  user.Name,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	}

	if err := h.DB.Create(&review).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating review")
	}

	logger.InfoWithUser(user.ID.String(), "review_submitted", map[string]interface{}{
		"review_id":   review.ID.String(),
		"donor_email": review.DonorEmail,
		"rating":      review.Rating,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "review.submit",
		ResourceType: "review",
		ResourceID:   &review.ID,
		Details: map[string]interface{}{
			"donor_email": review.DonorEmail,
			"rating":      review.Rating,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.SuccessMessage(c, fiber.StatusCreated, "Review submitted successfully", fiber.Map{"review": review})
}

// ListForDonor returns a donor's reviews along with the aggregate
// rating.
func (h *ReviewsHandler) ListForDonor(c *fiber.Ctx) error {
	donorEmail := normalizeEmail(c.Params("email"))
	if donorEmail == "" {
		return utils.Error(c, fiber.StatusBadRequest, "donor email is required")
	}

	var reviews []models.Review
	if err := h.DB.Where("donor_email = ?", donorEmail).Order("created_at").Find(&reviews).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing reviews")
	}

	average, total, err := h.Reputation.AverageRating(donorEmail)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing average rating")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"reviews":       reviews,
		"averageRating": average,
		"totalReviews":  total,
	})
}

// TopDonor is public: the landing page shows the highest-scoring donor.
// data is null when no donor has a review yet.
func (h *ReviewsHandler) TopDonor(c *fiber.Ctx) error {
	top, err := h.Reputation.TopDonor()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing top donor")
	}
	if top == nil {
		return utils.Success(c, fiber.StatusOK, nil)
	}
	return utils.Success(c, fiber.StatusOK, top)
}
