package models

import "time"

// Letter statuses. A letter in draft or in a terminal status accepts no
// workflow actions.
const (
	LetterStatusDraft             = "draft"
	LetterStatusInReview          = "in_review"
	LetterStatusRevisionRequested = "revision_requested"
	LetterStatusRejected          = "rejected"
	LetterStatusCompleted         = "completed"
)

// Letter represents the letters table: one scholarship recommendation letter
// moving through the approval pipeline. The workflow engine is the only
// writer; everything else reads.
type Letter struct {
	LetterID    int    `gorm:"primaryKey;column:letter_id" json:"letter_id"`
	ApplicantID int    `gorm:"column:applicant_id" json:"applicant_id"`
	CurrentStep int    `gorm:"column:current_step" json:"current_step"`
	Status      string `gorm:"column:status" json:"status"`

	// FormData is the applicant-supplied payload, stored as a JSON blob.
	// The workflow engine never looks inside it.
	FormData string `gorm:"column:form_data" json:"form_data"`

	// LetterNumber is set exactly once, when the publisher completes the
	// letter. NumberCandidate holds the publisher's draft number before
	// that and may be rewritten freely while the letter is at step 4.
	LetterNumber    *string `gorm:"column:letter_number" json:"letter_number,omitempty"`
	NumberCandidate *string `gorm:"column:number_candidate" json:"number_candidate,omitempty"`

	// Opaque storage references. The dean signs, the publisher stamps.
	SignatureRef *string `gorm:"column:signature_ref" json:"signature_ref,omitempty"`
	StampRef     *string `gorm:"column:stamp_ref" json:"stamp_ref,omitempty"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	Applicant    *User                 `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Verification *LetterVerification   `gorm:"foreignKey:LetterID" json:"verification,omitempty"`
	History      []LetterStatusHistory `gorm:"foreignKey:LetterID" json:"history,omitempty"`
}

// TableName specifies the table name for Letter.
func (Letter) TableName() string {
	return "letters"
}

// IsTerminal reports whether no further workflow action is accepted.
func (l *Letter) IsTerminal() bool {
	return l.Status == LetterStatusRejected || l.Status == LetterStatusCompleted
}
