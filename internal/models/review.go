package models

// Review targets a donor. The composite unique index enforces at most
// one review per (reviewer, donor) pair at the storage layer; handlers
// check it first to return a readable conflict message.
type Review struct {
	BaseModel
	DonorEmail    string `json:"donorEmail" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_reviewer_donor"`
	ReviewerEmail string `json:"reviewerEmail" gorm:"type:varchar(255);not null;uniqueIndex:idx_reviewer_donor"`
	ReviewerName  string `json:"reviewerName" gorm:"type:varchar(100);not null"`
	Rating        int    `json:"rating" gorm:"not null"`
	Comment       string `json:"comment" gorm:"type:text"`
}

func (Review) TableName() string {
	return "reviews"
}
