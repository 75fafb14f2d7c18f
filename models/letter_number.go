package models

import "time"

// LetterNumber is the registry of issued letter numbers, keyed by the number
// string itself so availability is a primary-key lookup and the unique
// constraint doubles as the commit-time test-and-set. An amended number
// leaves the old row in place with superseded_at set.
type LetterNumber struct {
	LetterNumber string     `gorm:"primaryKey;column:letter_number" json:"letter_number"`
	LetterID     int        `gorm:"column:letter_id" json:"letter_id"`
	Sequence     int        `gorm:"column:sequence" json:"sequence"`
	UnitCode     string     `gorm:"column:unit_code" json:"unit_code"`
	Category     string     `gorm:"column:category" json:"category"`
	MonthRoman   string     `gorm:"column:month_roman" json:"month_roman"`
	Year         int        `gorm:"column:year" json:"year"`
	IssuedAt     time.Time  `gorm:"column:issued_at" json:"issued_at"`
	SupersededAt *time.Time `gorm:"column:superseded_at" json:"superseded_at,omitempty"`
}

// TableName specifies the table for LetterNumber.
func (LetterNumber) TableName() string {
	return "letter_numbers"
}

// IsActive reports whether this number still identifies a published letter.
func (n *LetterNumber) IsActive() bool {
	return n.SupersededAt == nil
}
