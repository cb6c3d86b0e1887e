package profile

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleManager  Role = "MANAGER"
)

// Profile is the application's record of a user. Email may be missing for
// accounts created before profiles were backfilled.
type Profile struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	Email       string    `json:"email,omitempty" gorm:"column:email"`
	FullName    string    `json:"fullName,omitempty" gorm:"column:full_name"`
	PhoneNumber string    `json:"phoneNumber,omitempty" gorm:"column:phone_number"`
	Role        Role      `json:"role" gorm:"column:role"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Profile) TableName() string { return "profiles" }

// Account mirrors the identity provider's user record.
type Account struct {
	ID           string    `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at"`
}

func (Account) TableName() string { return "accounts" }
