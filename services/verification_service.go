package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"letter-workflow-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationService is the public read path for published letters. Nothing
// else exposes letter internals by code.
type VerificationService struct {
	db *gorm.DB
}

func NewVerificationService(db *gorm.DB) *VerificationService {
	return &VerificationService{db: db}
}

// VerificationResult is the public snapshot returned for a valid code.
type VerificationResult struct {
	Code          string                       `json:"code"`
	IssuedAt      time.Time                    `json:"issued_at"`
	ViewCount     int                          `json:"view_count"`
	LetterNumber  string                       `json:"letter_number"`
	Status        string                       `json:"status"`
	ApplicantName string                       `json:"applicant_name"`
	SubmittedAt   *time.Time                   `json:"submitted_at,omitempty"`
	CompletedAt   time.Time                    `json:"completed_at"`
	History       []models.LetterStatusHistory `json:"history"`
}

const verificationCodeLength = 10

func newVerificationCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:verificationCodeLength]
}

// issueVerification creates the 1:1 code for a letter at the moment it
// completes. Runs inside the publish transaction; a code collision retries
// with a fresh code, and an already-issued letter keeps its original code.
func issueVerification(tx *gorm.DB, letterID int, now time.Time) (*models.LetterVerification, error) {
	var existing models.LetterVerification
	err := tx.Where("letter_id = ?", letterID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing verification: %w", err)
	}

	for attempt := 0; attempt < 5; attempt++ {
		verification := models.LetterVerification{
			Code:     newVerificationCode(),
			LetterID: letterID,
			IssuedAt: now,
		}
		if err := tx.Create(&verification).Error; err != nil {
			if isDuplicateKeyErr(err) {
				continue
			}
			return nil, fmt.Errorf("failed to issue verification code: %w", err)
		}
		return &verification, nil
	}

	return nil, fmt.Errorf("failed to issue verification code: exhausted retries")
}

// Lookup resolves a public code to its letter snapshot and counts the view.
// At-least-once counting is fine; unknown codes return ErrNotFound with no
// internal detail.
func (v *VerificationService) Lookup(ctx context.Context, code string) (*VerificationResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrNotFound
	}

	var verification models.LetterVerification
	err := v.db.WithContext(ctx).Where("code = ?", code).First(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification: %w", err)
	}

	if err := v.db.WithContext(ctx).Model(&models.LetterVerification{}).
		Where("code = ?", code).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	verification.ViewCount++

	var letter models.Letter
	if err := v.db.WithContext(ctx).Preload("Applicant").
		Where("letter_id = ?", verification.LetterID).
		First(&letter).Error; err != nil {
		return nil, fmt.Errorf("failed to load letter: %w", err)
	}

	var history []models.LetterStatusHistory
	if err := v.db.WithContext(ctx).
		Where("letter_id = ?", verification.LetterID).
		Order("history_id ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	result := &VerificationResult{
		Code:        verification.Code,
		IssuedAt:    verification.IssuedAt,
		ViewCount:   verification.ViewCount,
		Status:      letter.Status,
		SubmittedAt: letter.SubmittedAt,
		CompletedAt: letter.UpdatedAt,
		History:     history,
	}
	if letter.LetterNumber != nil {
		result.LetterNumber = *letter.LetterNumber
	}
	if letter.Applicant != nil {
		result.ApplicantName = letter.Applicant.FullName
	}
	return result, nil
}
