package models

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleDonor    UserRole = "donor"
	UserRoleReceiver UserRole = "receiver"
)

// User covers all three account kinds. Donors are verified at
// registration, receivers only after an admin approves their
// verification request, and the admin account is seeded at startup.
type User struct {
	BaseModel
	Name         string   `json:"name" gorm:"type:varchar(100);not null"`
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Phone        string   `json:"phone" gorm:"type:varchar(30);not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;index"`
	Verified     bool     `json:"verified" gorm:"not null;default:false"`
}

func (User) TableName() string {
	return "users"
}
