package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"letter-workflow-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionInput carries one workflow action request against a letter.
type ActionInput struct {
	Action     string
	Note       string
	TargetStep *int
	IPAddress  string
	UserAgent  string
}

// WorkflowService validates and applies workflow actions. All mutation of a
// letter goes through here; each action runs in a single transaction holding
// a row lock on the letter, so actions on one letter are serialized while
// different letters proceed in parallel.
type WorkflowService struct {
	db       *gorm.DB
	notifier *NotificationService
	clock    func() time.Time
}

func NewWorkflowService(db *gorm.DB) *WorkflowService {
	return &WorkflowService{
		db:       db,
		notifier: NewNotificationService(db),
		clock:    time.Now,
	}
}

// validateAction decides whether an action may proceed against the letter's
// current state. Side-effect free; rules evaluate in order and the first
// failing rule wins.
func validateAction(letter *models.Letter, actorID int, actorRole Role, in *ActionInput) error {
	switch in.Action {
	case models.ActionApprove, models.ActionReject, models.ActionRevision, models.ActionResubmit:
	default:
		return ErrUnknownAction
	}

	// Drafts and terminal letters accept nothing, not even from the
	// nominal current-step actor.
	if letter.Status == models.LetterStatusDraft || letter.IsTerminal() {
		return ErrTerminalState
	}

	actorStep, err := StepOf(actorRole)
	if err != nil {
		return err
	}

	if in.Action == models.ActionResubmit {
		// Only the owning applicant resubmits; having the applicant role
		// on some other letter grants nothing here.
		if actorRole != RoleApplicant || letter.ApplicantID != actorID ||
			letter.CurrentStep != StepApplicant ||
			letter.Status != models.LetterStatusRevisionRequested {
			return ErrNotYourTurn
		}
		return nil
	}

	if actorStep != letter.CurrentStep {
		return ErrNotYourTurn
	}

	switch in.Action {
	case models.ActionApprove:
		if actorStep == StepPublisher {
			if !hasRef(letter.NumberCandidate) || !hasRef(letter.StampRef) {
				return ErrIncompletePublication
			}
		}
	case models.ActionReject:
		if strings.TrimSpace(in.Note) == "" {
			return ErrNoteRequired
		}
	case models.ActionRevision:
		if strings.TrimSpace(in.Note) == "" {
			return ErrNoteRequired
		}
		if in.TargetStep == nil || *in.TargetStep < 0 || *in.TargetStep >= actorStep {
			return ErrInvalidRevisionTarget
		}
	}

	return nil
}

func hasRef(ref *string) bool {
	return ref != nil && strings.TrimSpace(*ref) != ""
}

// applyAction validates the action and mutates the letter in memory,
// returning the history entry to append. The publisher's approve leaves the
// step at 4 with status completed; the letter number itself is bound by the
// caller inside the same transaction.
func applyAction(letter *models.Letter, actorID int, actorRole Role, in *ActionInput, now time.Time) (*models.LetterStatusHistory, error) {
	if err := validateAction(letter, actorID, actorRole, in); err != nil {
		return nil, err
	}

	actorStep, _ := StepOf(actorRole)
	oldStep := letter.CurrentStep
	oldStatus := letter.Status

	switch in.Action {
	case models.ActionApprove:
		if actorStep == StepPublisher {
			letter.Status = models.LetterStatusCompleted
		} else {
			letter.CurrentStep = actorStep + 1
			letter.Status = models.LetterStatusInReview
		}
	case models.ActionReject:
		letter.Status = models.LetterStatusRejected
	case models.ActionRevision:
		letter.CurrentStep = *in.TargetStep
		letter.Status = models.LetterStatusRevisionRequested
	case models.ActionResubmit:
		// Re-review is mandatory: re-enter at the first reviewer no
		// matter which step requested the revision.
		letter.CurrentStep = StepAdvisor
		letter.Status = models.LetterStatusInReview
	}
	letter.UpdatedAt = now

	history := &models.LetterStatusHistory{
		LetterID:  letter.LetterID,
		ActorID:   actorID,
		ActorRole: string(actorRole),
		Action:    in.Action,
		OldStep:   oldStep,
		NewStep:   letter.CurrentStep,
		OldStatus: oldStatus,
		NewStatus: letter.Status,
		CreatedAt: now,
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		history.Note = &note
	}
	if in.Action == models.ActionRevision {
		target := *in.TargetStep
		history.TargetStep = &target
	}

	return history, nil
}

// Act applies one workflow action as a single atomic unit: state change,
// history append, and (for the publisher's approve) number finalization and
// verification issuance all commit together or not at all.
func (s *WorkflowService) Act(ctx context.Context, letterID, actorID int, actorRole Role, in *ActionInput) (*models.Letter, error) {
	if in == nil {
		in = &ActionInput{}
	}

	var letter models.Letter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("letter_id = ? AND deleted_at IS NULL", letterID).
			First(&letter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLetterNotFound
			}
			return fmt.Errorf("failed to load letter: %w", err)
		}

		now := s.clock()
		history, err := applyAction(&letter, actorID, actorRole, in, now)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"current_step": letter.CurrentStep,
			"status":       letter.Status,
			"updated_at":   now,
		}

		if letter.Status == models.LetterStatusCompleted {
			committed, err := finalizeNumber(tx, letter.LetterID, *letter.NumberCandidate, now)
			if err != nil {
				return err
			}
			letter.LetterNumber = &committed
			updates["letter_number"] = committed

			verification, err := issueVerification(tx, letter.LetterID, now)
			if err != nil {
				return err
			}
			letter.Verification = verification
		}

		if err := tx.Model(&models.Letter{}).
			Where("letter_id = ?", letter.LetterID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update letter: %w", err)
		}

		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		if err := writeActionAudit(tx, &letter, actorID, in, now); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyTransition(ctx, &letter, in.Action, strings.TrimSpace(in.Note))
	emitLetterStateChanged(letter)

	return &letter, nil
}

// SubmitDraft moves a draft into review at the first reviewer. Only the
// applicant who owns the draft may submit it.
func (s *WorkflowService) SubmitDraft(ctx context.Context, letterID, actorID int) (*models.Letter, error) {
	var letter models.Letter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("letter_id = ? AND deleted_at IS NULL", letterID).
			First(&letter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLetterNotFound
			}
			return fmt.Errorf("failed to load letter: %w", err)
		}

		if letter.ApplicantID != actorID {
			return ErrNotYourTurn
		}
		if letter.Status != models.LetterStatusDraft {
			return ErrTerminalState
		}

		now := s.clock()
		letter.CurrentStep = StepAdvisor
		letter.Status = models.LetterStatusInReview
		letter.SubmittedAt = &now
		letter.UpdatedAt = now

		if err := tx.Model(&models.Letter{}).
			Where("letter_id = ?", letter.LetterID).
			Updates(map[string]interface{}{
				"current_step": letter.CurrentStep,
				"status":       letter.Status,
				"submitted_at": now,
				"updated_at":   now,
			}).Error; err != nil {
			return fmt.Errorf("failed to submit letter: %w", err)
		}

		history := models.LetterStatusHistory{
			LetterID:  letter.LetterID,
			ActorID:   actorID,
			ActorRole: string(RoleApplicant),
			Action:    models.ActionSubmit,
			OldStep:   StepApplicant,
			NewStep:   StepAdvisor,
			OldStatus: models.LetterStatusDraft,
			NewStatus: models.LetterStatusInReview,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyTransition(ctx, &letter, models.ActionSubmit, "")
	emitLetterStateChanged(letter)

	return &letter, nil
}

// AttachSignature sets the dean's signature reference while the letter is at
// the dean's step. Re-signing is idempotent and appends no history.
func (s *WorkflowService) AttachSignature(ctx context.Context, letterID int, actorRole Role, ref string) (*models.Letter, error) {
	return s.attachArtifact(ctx, letterID, actorRole, StepDean, "signature_ref", ref)
}

// AttachStamp sets the official stamp reference while the letter is at the
// publisher's step.
func (s *WorkflowService) AttachStamp(ctx context.Context, letterID int, actorRole Role, ref string) (*models.Letter, error) {
	return s.attachArtifact(ctx, letterID, actorRole, StepPublisher, "stamp_ref", ref)
}

func (s *WorkflowService) attachArtifact(ctx context.Context, letterID int, actorRole Role, requiredStep int, column, ref string) (*models.Letter, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrArtifactRequired
	}

	actorStep, err := StepOf(actorRole)
	if err != nil {
		return nil, err
	}
	if actorStep != requiredStep {
		return nil, ErrNotYourTurn
	}

	var letter models.Letter
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("letter_id = ? AND deleted_at IS NULL", letterID).
			First(&letter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLetterNotFound
			}
			return fmt.Errorf("failed to load letter: %w", err)
		}

		if letter.Status == models.LetterStatusDraft || letter.IsTerminal() {
			return ErrTerminalState
		}
		// Artifacts freeze once the letter leaves the acting step.
		if letter.CurrentStep != requiredStep {
			return ErrNotYourTurn
		}

		now := s.clock()
		if err := tx.Model(&models.Letter{}).
			Where("letter_id = ?", letter.LetterID).
			Updates(map[string]interface{}{
				column:       ref,
				"updated_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to attach artifact: %w", err)
		}

		switch column {
		case "signature_ref":
			letter.SignatureRef = &ref
		case "stamp_ref":
			letter.StampRef = &ref
		}
		letter.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// SetNumberCandidate stores the publisher's drafted letter number after an
// advisory format and availability check. Repeatable while the letter stays
// at the publisher's step; nothing is reserved until the publish commits.
func (s *WorkflowService) SetNumberCandidate(ctx context.Context, letterID int, actorRole Role, candidate string) (*models.Letter, *NumberAvailability, error) {
	actorStep, err := StepOf(actorRole)
	if err != nil {
		return nil, nil, err
	}
	if actorStep != StepPublisher {
		return nil, nil, ErrNotYourTurn
	}

	numbering := NewNumberingService(s.db)
	availability, err := numbering.ReserveAndValidate(ctx, candidate)
	if err != nil {
		return nil, nil, err
	}
	if !availability.IsValidFormat {
		return nil, availability, ErrInvalidNumberFormat
	}
	if !availability.IsAvailable {
		return nil, availability, ErrNumberConflict
	}

	var letter models.Letter
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("letter_id = ? AND deleted_at IS NULL", letterID).
			First(&letter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLetterNotFound
			}
			return fmt.Errorf("failed to load letter: %w", err)
		}

		if letter.Status == models.LetterStatusDraft || letter.IsTerminal() {
			return ErrTerminalState
		}
		if letter.CurrentStep != StepPublisher {
			return ErrNotYourTurn
		}

		now := s.clock()
		trimmed := strings.TrimSpace(candidate)
		if err := tx.Model(&models.Letter{}).
			Where("letter_id = ?", letter.LetterID).
			Updates(map[string]interface{}{
				"number_candidate": trimmed,
				"updated_at":       now,
			}).Error; err != nil {
			return fmt.Errorf("failed to store number candidate: %w", err)
		}
		letter.NumberCandidate = &trimmed
		letter.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, availability, err
	}
	return &letter, availability, nil
}

func writeActionAudit(tx *gorm.DB, letter *models.Letter, actorID int, in *ActionInput, now time.Time) error {
	values := map[string]interface{}{
		"action":       in.Action,
		"current_step": letter.CurrentStep,
		"status":       letter.Status,
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		values["note"] = note
	}
	if in.TargetStep != nil {
		values["target_step"] = *in.TargetStep
	}
	serialized, _ := json.Marshal(values)

	entityID := letter.LetterID
	newValues := string(serialized)
	audit := models.AuditLog{
		UserID:     actorID,
		Action:     in.Action,
		EntityType: "letter",
		EntityID:   &entityID,
		NewValues:  &newValues,
		IPAddress:  in.IPAddress,
		CreatedAt:  now,
	}
	if letter.LetterNumber != nil {
		audit.EntityNumber = letter.LetterNumber
	}
	if ua := strings.TrimSpace(in.UserAgent); ua != "" {
		audit.UserAgent = &ua
	}

	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
