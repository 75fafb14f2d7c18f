package services

import (
	"errors"
	"testing"
	"time"

	"letter-workflow-api/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func letterAt(step int, status string) *models.Letter {
	return &models.Letter{
		LetterID:    7,
		ApplicantID: 42,
		CurrentStep: step,
		Status:      status,
	}
}

func TestValidateActionUnknownAction(t *testing.T) {
	letter := letterAt(1, models.LetterStatusInReview)
	err := validateAction(letter, 11, RoleAdvisor, &ActionInput{Action: "escalate"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestValidateActionDraftAndTerminalStates(t *testing.T) {
	for _, status := range []string{
		models.LetterStatusDraft,
		models.LetterStatusRejected,
		models.LetterStatusCompleted,
	} {
		for _, action := range []string{
			models.ActionApprove,
			models.ActionReject,
			models.ActionRevision,
			models.ActionResubmit,
		} {
			letter := letterAt(1, status)
			in := &ActionInput{Action: action, Note: "n", TargetStep: intPtr(0)}
			if err := validateAction(letter, 11, RoleAdvisor, in); !errors.Is(err, ErrTerminalState) {
				t.Fatalf("status %s action %s: expected ErrTerminalState, got %v", status, action, err)
			}
		}
	}
}

func TestValidateActionUnknownRole(t *testing.T) {
	letter := letterAt(1, models.LetterStatusInReview)
	err := validateAction(letter, 11, "janitor", &ActionInput{Action: models.ActionApprove})
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestValidateActionWrongTurn(t *testing.T) {
	// Letter sits with the vice dean; everyone else is turned away.
	letter := letterAt(2, models.LetterStatusInReview)
	for _, role := range []Role{RoleApplicant, RoleAdvisor, RoleDean, RolePublisher} {
		err := validateAction(letter, 11, role, &ActionInput{Action: models.ActionApprove})
		if !errors.Is(err, ErrNotYourTurn) {
			t.Fatalf("role %s: expected ErrNotYourTurn, got %v", role, err)
		}
	}
	if err := validateAction(letter, 21, RoleViceDean, &ActionInput{Action: models.ActionApprove}); err != nil {
		t.Fatalf("vice dean at own step: unexpected error %v", err)
	}
}

func TestValidateActionRejectRequiresNote(t *testing.T) {
	letter := letterAt(3, models.LetterStatusInReview)
	err := validateAction(letter, 31, RoleDean, &ActionInput{Action: models.ActionReject, Note: "   "})
	if !errors.Is(err, ErrNoteRequired) {
		t.Fatalf("expected ErrNoteRequired, got %v", err)
	}
	err = validateAction(letter, 31, RoleDean, &ActionInput{Action: models.ActionReject, Note: "missing transcript"})
	if err != nil {
		t.Fatalf("reject with note: unexpected error %v", err)
	}
}

func TestValidateActionRevisionTargets(t *testing.T) {
	cases := []struct {
		role    Role
		step    int
		target  *int
		wantErr error
	}{
		{RoleAdvisor, 1, intPtr(0), nil},
		{RoleAdvisor, 1, intPtr(1), ErrInvalidRevisionTarget},
		{RoleAdvisor, 1, intPtr(2), ErrInvalidRevisionTarget},
		{RoleAdvisor, 1, nil, ErrInvalidRevisionTarget},
		{RoleViceDean, 2, intPtr(0), nil},
		{RoleViceDean, 2, intPtr(1), nil},
		{RoleViceDean, 2, intPtr(2), ErrInvalidRevisionTarget},
		{RoleDean, 3, intPtr(-1), ErrInvalidRevisionTarget},
		{RoleDean, 3, intPtr(2), nil},
		{RolePublisher, 4, intPtr(3), nil},
		{RolePublisher, 4, intPtr(4), ErrInvalidRevisionTarget},
	}

	for _, tc := range cases {
		letter := letterAt(tc.step, models.LetterStatusInReview)
		in := &ActionInput{Action: models.ActionRevision, Note: "please revise", TargetStep: tc.target}
		err := validateAction(letter, 11, tc.role, in)
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("role %s target %v: unexpected error %v", tc.role, tc.target, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("role %s target %v: expected %v, got %v", tc.role, tc.target, tc.wantErr, err)
		}
	}
}

func TestValidateActionRevisionRequiresNote(t *testing.T) {
	letter := letterAt(2, models.LetterStatusInReview)
	in := &ActionInput{Action: models.ActionRevision, TargetStep: intPtr(0)}
	if err := validateAction(letter, 21, RoleViceDean, in); !errors.Is(err, ErrNoteRequired) {
		t.Fatalf("expected ErrNoteRequired, got %v", err)
	}
}

func TestValidateActionPublisherApproveNeedsArtifacts(t *testing.T) {
	letter := letterAt(4, models.LetterStatusInReview)
	in := &ActionInput{Action: models.ActionApprove}

	if err := validateAction(letter, 99, RolePublisher, in); !errors.Is(err, ErrIncompletePublication) {
		t.Fatalf("no artifacts: expected ErrIncompletePublication, got %v", err)
	}

	letter.NumberCandidate = strPtr("12/UN7.F5/KM/VIII/2026")
	if err := validateAction(letter, 99, RolePublisher, in); !errors.Is(err, ErrIncompletePublication) {
		t.Fatalf("missing stamp: expected ErrIncompletePublication, got %v", err)
	}

	letter.StampRef = strPtr("stamps/official.png")
	if err := validateAction(letter, 99, RolePublisher, in); err != nil {
		t.Fatalf("all artifacts present: unexpected error %v", err)
	}
}

func TestValidateActionResubmit(t *testing.T) {
	// Only the applicant, only at step 0, only after a revision request.
	ok := letterAt(0, models.LetterStatusRevisionRequested)
	if err := validateAction(ok, 42, RoleApplicant, &ActionInput{Action: models.ActionResubmit}); err != nil {
		t.Fatalf("valid resubmit: unexpected error %v", err)
	}

	wrongRole := letterAt(0, models.LetterStatusRevisionRequested)
	if err := validateAction(wrongRole, 11, RoleAdvisor, &ActionInput{Action: models.ActionResubmit}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("advisor resubmit: expected ErrNotYourTurn, got %v", err)
	}

	wrongStep := letterAt(1, models.LetterStatusRevisionRequested)
	if err := validateAction(wrongStep, 42, RoleApplicant, &ActionInput{Action: models.ActionResubmit}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("resubmit at step 1: expected ErrNotYourTurn, got %v", err)
	}

	wrongStatus := letterAt(0, models.LetterStatusInReview)
	if err := validateAction(wrongStatus, 42, RoleApplicant, &ActionInput{Action: models.ActionResubmit}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("resubmit while in review: expected ErrNotYourTurn, got %v", err)
	}
}

func TestResubmitRequiresOwnership(t *testing.T) {
	// Another user with the applicant role must not be able to resubmit a
	// letter they do not own.
	letter := letterAt(0, models.LetterStatusRevisionRequested)
	if err := validateAction(letter, 999, RoleApplicant, &ActionInput{Action: models.ActionResubmit}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("foreign applicant resubmit: expected ErrNotYourTurn, got %v", err)
	}

	_, err := applyAction(letter, 999, RoleApplicant, &ActionInput{Action: models.ActionResubmit}, time.Now())
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("applyAction for foreign applicant: expected ErrNotYourTurn, got %v", err)
	}
	if letter.CurrentStep != 0 || letter.Status != models.LetterStatusRevisionRequested {
		t.Fatalf("letter mutated by rejected resubmit: step %d %s", letter.CurrentStep, letter.Status)
	}
}

func TestApplyActionApproveAdvances(t *testing.T) {
	now := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	letter := letterAt(1, models.LetterStatusInReview)

	history, err := applyAction(letter, 11, RoleAdvisor, &ActionInput{Action: models.ActionApprove}, now)
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}

	if letter.CurrentStep != 2 || letter.Status != models.LetterStatusInReview {
		t.Fatalf("expected step 2 in_review, got step %d %s", letter.CurrentStep, letter.Status)
	}
	if history.OldStep != 1 || history.NewStep != 2 {
		t.Fatalf("history steps = %d -> %d, want 1 -> 2", history.OldStep, history.NewStep)
	}
	if history.Action != models.ActionApprove || history.ActorID != 11 || history.ActorRole != "advisor" {
		t.Fatalf("unexpected history entry: %+v", history)
	}
	if history.Note != nil {
		t.Fatalf("approve without note should leave history note nil")
	}
}

func TestApplyActionPublisherApproveCompletes(t *testing.T) {
	now := time.Now()
	letter := letterAt(4, models.LetterStatusInReview)
	letter.NumberCandidate = strPtr("45/UN7.F5/KM/2026")
	letter.StampRef = strPtr("stamps/2026.png")

	history, err := applyAction(letter, 99, RolePublisher, &ActionInput{Action: models.ActionApprove}, now)
	if err != nil {
		t.Fatalf("applyAction: %v", err)
	}

	// The publisher's approve does not advance the step; the letter ends
	// where it was published.
	if letter.CurrentStep != 4 {
		t.Fatalf("expected step to stay 4, got %d", letter.CurrentStep)
	}
	if letter.Status != models.LetterStatusCompleted {
		t.Fatalf("expected completed, got %s", letter.Status)
	}
	if history.NewStatus != models.LetterStatusCompleted {
		t.Fatalf("history new status = %s, want completed", history.NewStatus)
	}
}

func TestApplyActionRevisionThenResubmit(t *testing.T) {
	now := time.Now()
	letter := letterAt(2, models.LetterStatusInReview)

	in := &ActionInput{Action: models.ActionRevision, Note: "attach GPA proof", TargetStep: intPtr(0)}
	history, err := applyAction(letter, 21, RoleViceDean, in, now)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if letter.CurrentStep != 0 || letter.Status != models.LetterStatusRevisionRequested {
		t.Fatalf("after revision: step %d %s", letter.CurrentStep, letter.Status)
	}
	if history.TargetStep == nil || *history.TargetStep != 0 {
		t.Fatalf("history target step = %v, want 0", history.TargetStep)
	}
	if history.Note == nil || *history.Note != "attach GPA proof" {
		t.Fatalf("history note = %v", history.Note)
	}

	// Resubmission always re-enters at the advisor, even when a later
	// reviewer asked for the revision.
	history, err = applyAction(letter, 42, RoleApplicant, &ActionInput{Action: models.ActionResubmit}, now)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if letter.CurrentStep != StepAdvisor || letter.Status != models.LetterStatusInReview {
		t.Fatalf("after resubmit: step %d %s", letter.CurrentStep, letter.Status)
	}
	if history.OldStep != 0 || history.NewStep != 1 {
		t.Fatalf("resubmit history steps = %d -> %d, want 0 -> 1", history.OldStep, history.NewStep)
	}
}

func TestApplyActionRejectIsTerminal(t *testing.T) {
	now := time.Now()
	letter := letterAt(3, models.LetterStatusInReview)

	if _, err := applyAction(letter, 5, RoleDean, &ActionInput{Action: models.ActionReject, Note: "not eligible"}, now); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if letter.Status != models.LetterStatusRejected || letter.CurrentStep != 3 {
		t.Fatalf("after reject: step %d %s", letter.CurrentStep, letter.Status)
	}
	if !letter.IsTerminal() {
		t.Fatalf("rejected letter should be terminal")
	}

	_, err := applyAction(letter, 42, RoleApplicant, &ActionInput{Action: models.ActionResubmit}, now)
	if !errors.Is(err, ErrTerminalState) {
		t.Fatalf("resubmit after reject: expected ErrTerminalState, got %v", err)
	}
}

func TestApplyActionFullApprovalChain(t *testing.T) {
	now := time.Now()
	letter := letterAt(1, models.LetterStatusInReview)
	letter.NumberCandidate = strPtr("45/UN7.F5/KM/VIII/2026")
	letter.StampRef = strPtr("stamps/2026.png")

	chain := []struct {
		role     Role
		wantStep int
	}{
		{RoleAdvisor, 2},
		{RoleViceDean, 3},
		{RoleDean, 4},
		{RolePublisher, 4},
	}

	for _, hop := range chain {
		if _, err := applyAction(letter, 1, hop.role, &ActionInput{Action: models.ActionApprove}, now); err != nil {
			t.Fatalf("%s approve: %v", hop.role, err)
		}
		if letter.CurrentStep != hop.wantStep {
			t.Fatalf("after %s approve: step %d, want %d", hop.role, letter.CurrentStep, hop.wantStep)
		}
	}

	if letter.Status != models.LetterStatusCompleted {
		t.Fatalf("expected completed at end of chain, got %s", letter.Status)
	}
}
