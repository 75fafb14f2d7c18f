package models

import "time"

type User struct {
	UserID   int    `gorm:"primaryKey;column:user_id" json:"user_id"`
	FullName string `gorm:"column:full_name" json:"full_name"`
	Email    string `gorm:"column:email;unique" json:"email"`
	Password string `gorm:"column:password" json:"-"`

	// Role is the pipeline role name (applicant, advisor, vice_dean, dean,
	// publisher) stored directly on the user row.
	Role string `gorm:"column:role" json:"role"`

	// NIM for students, NIP for staff; whichever applies.
	NIM *string `gorm:"column:nim" json:"nim,omitempty"`
	NIP *string `gorm:"column:nip" json:"nip,omitempty"`

	// UnitCode is the issuing unit the user belongs to (e.g. UN7.F5).
	UnitCode *string `gorm:"column:unit_code" json:"unit_code,omitempty"`

	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}
