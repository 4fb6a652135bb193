package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBaseModelBeforeCreate(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if base.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}

	existing := uuid.New()
	base = BaseModel{ID: existing}
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if base.ID != existing {
		t.Fatal("expected a preset id to survive")
	}
}

func TestValidDonationStatus(t *testing.T) {
	for _, status := range []DonationStatus{
		DonationStatusAvailable,
		DonationStatusClaimed,
		DonationStatusUnavailable,
		DonationStatusExpired,
	} {
		if !ValidDonationStatus(status) {
			t.Errorf("expected %q to be valid", status)
		}
	}
	for _, status := range []DonationStatus{"", "pending", "AVAILABLE", "deleted"} {
		if ValidDonationStatus(status) {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}

func TestVerificationHelpers(t *testing.T) {
	verification := Verification{Status: VerificationStatusPending}
	if verification.HasDocument() {
		t.Fatal("empty verification should have no document")
	}
	if verification.Decided() {
		t.Fatal("pending verification should not read as decided")
	}

	verification.DocumentName = "id.png"
	verification.DocumentData = "aWQ="
	if !verification.HasDocument() {
		t.Fatal("expected inline payload to count as a document")
	}

	verification.DocumentData = ""
	verification.DocumentKey = "verifications/abc/id.png"
	if !verification.HasDocument() {
		t.Fatal("expected an object-store key to count as a document")
	}

	now := time.Now().UTC()
	verification.Status = VerificationStatusApproved
	verification.ReviewedAt = &now
	if !verification.Decided() {
		t.Fatal("approved verification should read as decided")
	}
	verification.Status = VerificationStatusRejected
	if !verification.Decided() {
		t.Fatal("rejected verification should read as decided")
	}
}

func TestAuditLogBeforeCreate(t *testing.T) {
	var row AuditLog
	if err := row.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if row.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}

	stamped := AuditLog{CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := stamped.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if !stamped.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatal("expected a preset timestamp to survive")
	}
}
