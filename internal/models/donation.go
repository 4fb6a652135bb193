package models

import "time"

type DonationStatus string

const (
	DonationStatusAvailable   DonationStatus = "available"
	DonationStatusClaimed     DonationStatus = "claimed"
	DonationStatusUnavailable DonationStatus = "unavailable"
	DonationStatusExpired     DonationStatus = "expired"
)

// ValidDonationStatus reports whether value is one of the closed set of
// donation statuses.
func ValidDonationStatus(value DonationStatus) bool {
	switch value {
	case DonationStatusAvailable, DonationStatusClaimed, DonationStatusUnavailable, DonationStatusExpired:
		return true
	default:
		return false
	}
}

// Donation is owned by its donor through the email reference. The donor
// name and phone are denormalized at creation time so listings do not
// need a user lookup.
type Donation struct {
	BaseModel
	FoodName       string         `json:"foodName" gorm:"type:varchar(150);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Quantity       string         `json:"quantity" gorm:"type:varchar(100);not null"`
	PickupLocation string         `json:"pickupLocation" gorm:"type:varchar(255);not null"`
	ExpiryDate     *time.Time     `json:"expiryDate,omitempty"`
	DonorEmail     string         `json:"donorEmail" gorm:"type:varchar(255);not null;index"`
	DonorName      string         `json:"donorName" gorm:"type:varchar(100);not null"`
	DonorPhone     string         `json:"donorPhone" gorm:"type:varchar(30);not null"`
	Status         DonationStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`
	ClaimedBy      *string        `json:"claimedBy,omitempty" gorm:"type:varchar(255)"`
	ClaimedAt      *time.Time     `json:"claimedAt,omitempty"`
}

func (Donation) TableName() string {
	return "donations"
}
