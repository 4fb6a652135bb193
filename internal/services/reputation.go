package services

import (
	"math"

	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
)

// ReputationService computes donor ratings from reviews.
type ReputationService struct {
	DB *gorm.DB
}

func NewReputationService(db *gorm.DB) *ReputationService {
	return &ReputationService{DB: db}
}

// TopDonorResult is a donor annotated with their review aggregates.
type TopDonorResult struct {
	Donor          models.User `json:"donor"`
	AverageRating  float64     `json:"averageRating"`
	TotalReviews   int         `json:"totalReviews"`
	TotalDonations int         `json:"totalDonations"`
}

// AverageRating returns the mean rating for a donor rounded to one
// decimal place, or 0 when the donor has no reviews.
func (s *ReputationService) AverageRating(donorEmail string) (float64, int, error) {
	var reviews []models.Review
	if err := s.DB.Where("donor_email = ?", donorEmail).Order("created_at").Find(&reviews).Error; err != nil {
		return 0, 0, err
	}
	if len(reviews) == 0 {
		return 0, 0, nil
	}

	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10, len(reviews), nil
}

// TopDonor ranks donors by averageRating × reviewCount. Donors without
// reviews never win; ties keep the earliest-registered donor. Returns
// nil when no donor has a review.
func (s *ReputationService) TopDonor() (*TopDonorResult, error) {
	var donors []models.User
	if err := s.DB.Where("role = ?", models.UserRoleDonor).Order("created_at").Find(&donors).Error; err != nil {
		return nil, err
	}

	var reviews []models.Review
	if err := s.DB.Find(&reviews).Error; err != nil {
		return nil, err
	}

	reviewsByDonor := make(map[string][]models.Review)
	for _, review := range reviews {
		reviewsByDonor[review.DonorEmail] = append(reviewsByDonor[review.DonorEmail], review)
	}

	var top *TopDonorResult
	bestScore := 0.0

	for _, donor := range donors {
		donorReviews := reviewsByDonor[donor.Email]
		if len(donorReviews) == 0 {
			continue
		}

		sum := 0
		for _, review := range donorReviews {
			sum += review.Rating
		}
		average := float64(sum) / float64(len(donorReviews))
		score := average * float64(len(donorReviews))

		if score > bestScore {
			var donationCount int64
			if err := s.DB.Model(&models.Donation{}).Where("donor_email = ?", donor.Email).Count(&donationCount).Error; err != nil {
				return nil, err
			}

			bestScore = score
			top = &TopDonorResult{
				Donor:          donor,
				AverageRating:  math.Round(average*10) / 10,
				TotalReviews:   len(donorReviews),
				TotalDonations: int(donationCount),
			}
		}
	}

	return top, nil
}
