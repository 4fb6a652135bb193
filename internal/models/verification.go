package models

import "time"

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// Verification is the admin review request that promotes a receiver to
// verified. pending is the only non-terminal status: once approved or
// rejected a record is never re-decided.
//
// The uploaded document lives either in object storage (DocumentKey) or
// inline in DocumentData when no object store is configured. The inline
// payload is never serialized into list responses.
type Verification struct {
	BaseModel
	UserEmail    string             `json:"userEmail" gorm:"type:varchar(255);not null;index"`
	UserName     string             `json:"userName" gorm:"type:varchar(100);not null"`
	UserType     UserRole           `json:"userType" gorm:"type:varchar(20);not null"`
	Status       VerificationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AdminNotes   string             `json:"adminNotes" gorm:"type:text"`
	ReviewedAt   *time.Time         `json:"reviewedAt,omitempty"`
	DocumentName string             `json:"documentName,omitempty" gorm:"type:varchar(255)"`
	DocumentType string             `json:"documentType,omitempty" gorm:"type:varchar(100)"`
	DocumentSize int64              `json:"documentSize,omitempty"`
	DocumentKey  string             `json:"-" gorm:"type:varchar(255)"`
	DocumentData string             `json:"-" gorm:"type:text"`
}

func (Verification) TableName() string {
	return "verifications"
}

func (v *Verification) HasDocument() bool {
	return v.DocumentKey != "" || v.DocumentData != ""
}

func (v *Verification) Decided() bool {
	return v.Status != VerificationStatusPending
}
