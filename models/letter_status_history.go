package models

import "time"

// Workflow actions recorded in the history trail.
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionRevision = "revision"
	ActionResubmit = "resubmit"
)

// LetterStatusHistory is the append-only audit trail of workflow transitions
// for a letter. Rows are never updated or deleted; ordering comes from the
// serialization point of the action transaction, not the wall clock.
type LetterStatusHistory struct {
	HistoryID  int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	LetterID   int       `gorm:"column:letter_id" json:"letter_id"`
	ActorID    int       `gorm:"column:actor_id" json:"actor_id"`
	ActorRole  string    `gorm:"column:actor_role" json:"actor_role"`
	Action     string    `gorm:"column:action" json:"action"`
	OldStep    int       `gorm:"column:old_step" json:"old_step"`
	NewStep    int       `gorm:"column:new_step" json:"new_step"`
	OldStatus  string    `gorm:"column:old_status" json:"old_status"`
	NewStatus  string    `gorm:"column:new_status" json:"new_status"`
	TargetStep *int      `gorm:"column:target_step" json:"target_step,omitempty"`
	Note       *string   `gorm:"column:note" json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// TableName specifies the table for LetterStatusHistory.
func (LetterStatusHistory) TableName() string {
	return "letter_status_history"
}
