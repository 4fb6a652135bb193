package models

import (
	"time"

	"github.com/google/uuid"
)

// Claim is an immutable snapshot of the donation and receiver at claim
// time. Rows are never updated or deleted once written.
type Claim struct {
	BaseModel
	DonationID     uuid.UUID `json:"donationID" gorm:"type:uuid;not null;index"`
	ReceiverEmail  string    `json:"receiverEmail" gorm:"type:varchar(255);not null;index"`
	ReceiverName   string    `json:"receiverName" gorm:"type:varchar(100);not null"`
	ReceiverPhone  string    `json:"receiverPhone" gorm:"type:varchar(30);not null"`
	DonorEmail     string    `json:"donorEmail" gorm:"type:varchar(255);not null;index"`
	DonorName      string    `json:"donorName" gorm:"type:varchar(100);not null"`
	FoodName       string    `json:"foodName" gorm:"type:varchar(150);not null"`
	Quantity       string    `json:"quantity" gorm:"type:varchar(100);not null"`
	PickupLocation string    `json:"pickupLocation" gorm:"type:varchar(255);not null"`
	ClaimedAt      time.Time `json:"claimedAt" gorm:"not null"`
}

func (Claim) TableName() string {
	return "claims"
}
