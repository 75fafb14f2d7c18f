package models

import "time"

// LetterVerification binds a short public code 1:1 to a completed letter.
// Codes are issued once, at publish time, and never reused.
type LetterVerification struct {
	Code      string    `gorm:"primaryKey;column:code" json:"code"`
	LetterID  int       `gorm:"column:letter_id;unique" json:"letter_id"`
	IssuedAt  time.Time `gorm:"column:issued_at" json:"issued_at"`
	ViewCount int       `gorm:"column:view_count" json:"view_count"`
}

// TableName specifies the table for LetterVerification.
func (LetterVerification) TableName() string {
	return "letter_verifications"
}
