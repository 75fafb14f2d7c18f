package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"letter-workflow-api/models"
	"letter-workflow-api/utils"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Letter number layout: sequence/unit-code/category/roman-month/year.
// Archived numbers circulate both with and without the month segment, so the
// month is optional on input; previews always emit the long form.
var letterNumberPattern = regexp.MustCompile(`^([0-9]+)/([A-Z0-9]+(?:\.[A-Z0-9]+)*)/([A-Z]+)(?:/([IVX]+))?/([0-9]{4})$`)

// NumberParts is a parsed letter number.
type NumberParts struct {
	Sequence   int
	UnitCode   string
	Category   string
	MonthRoman string
	Year       int
}

// ParseLetterNumber validates the format of a candidate letter number and
// splits it into its components. Returns ErrInvalidNumberFormat for anything
// that does not match the pattern.
func ParseLetterNumber(candidate string) (*NumberParts, error) {
	match := letterNumberPattern.FindStringSubmatch(strings.TrimSpace(candidate))
	if match == nil {
		return nil, ErrInvalidNumberFormat
	}

	sequence, err := strconv.Atoi(match[1])
	if err != nil || sequence <= 0 {
		return nil, ErrInvalidNumberFormat
	}

	if match[4] != "" {
		if _, ok := utils.MonthFromRoman(match[4]); !ok {
			return nil, ErrInvalidNumberFormat
		}
	}

	year, err := strconv.Atoi(match[5])
	if err != nil {
		return nil, ErrInvalidNumberFormat
	}

	return &NumberParts{
		Sequence:   sequence,
		UnitCode:   match[2],
		Category:   match[3],
		MonthRoman: match[4],
		Year:       year,
	}, nil
}

// FormatLetterNumber renders parts back into the canonical long form.
func FormatLetterNumber(parts *NumberParts) string {
	if parts.MonthRoman == "" {
		return fmt.Sprintf("%d/%s/%s/%d", parts.Sequence, parts.UnitCode, parts.Category, parts.Year)
	}
	return fmt.Sprintf("%d/%s/%s/%s/%d", parts.Sequence, parts.UnitCode, parts.Category, parts.MonthRoman, parts.Year)
}

// NumberAvailability is the advisory result of checking a candidate number.
type NumberAvailability struct {
	Candidate        string `json:"candidate"`
	IsValidFormat    bool   `json:"is_valid_format"`
	IsAvailable      bool   `json:"is_available"`
	ConflictLetterID *int   `json:"conflict_letter_id,omitempty"`
}

// NumberingService issues and validates official letter numbers.
type NumberingService struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewNumberingService(db *gorm.DB) *NumberingService {
	return &NumberingService{db: db, clock: time.Now}
}

// Serializes preview generation within this process; commit-time uniqueness
// is still enforced by the letter_numbers primary key.
var previewNumberMutex sync.Mutex

// PreviewNext suggests the next letter number for a unit and category in the
// current month. Purely advisory: nothing is reserved, and two publishers
// previewing concurrently may see the same suggestion.
func (n *NumberingService) PreviewNext(ctx context.Context, unitCode, category string) (string, error) {
	previewNumberMutex.Lock()
	defer previewNumberMutex.Unlock()

	unitCode = strings.ToUpper(strings.TrimSpace(unitCode))
	category = strings.ToUpper(strings.TrimSpace(category))
	if unitCode == "" || category == "" {
		return "", ErrInvalidNumberFormat
	}

	now := n.clock()
	year := now.Year()

	var maxSeq sql.NullInt64
	err := n.db.WithContext(ctx).Model(&models.LetterNumber{}).
		Where("unit_code = ? AND year = ? AND superseded_at IS NULL", unitCode, year).
		Select("MAX(sequence)").
		Scan(&maxSeq).Error
	if err != nil {
		return "", fmt.Errorf("failed to inspect issued numbers: %w", err)
	}

	next := 1
	if maxSeq.Valid {
		next = int(maxSeq.Int64) + 1
	}

	// Probe a few sequence values in case a concurrent publisher got there
	// first; fall through with the last candidate if all probes collide.
	for i := 0; i < 10; i++ {
		parts := &NumberParts{
			Sequence:   next + i,
			UnitCode:   unitCode,
			Category:   category,
			MonthRoman: utils.RomanMonth(now.Month()),
			Year:       year,
		}
		candidate := FormatLetterNumber(parts)

		var taken int64
		if err := n.db.WithContext(ctx).Model(&models.LetterNumber{}).
			Where("letter_number = ? AND superseded_at IS NULL", candidate).
			Count(&taken).Error; err != nil {
			return "", fmt.Errorf("failed to probe number availability: %w", err)
		}
		if taken == 0 {
			return candidate, nil
		}
	}

	return FormatLetterNumber(&NumberParts{
		Sequence:   next + 10,
		UnitCode:   unitCode,
		Category:   category,
		MonthRoman: utils.RomanMonth(now.Month()),
		Year:       year,
	}), nil
}

// ReserveAndValidate checks a candidate's format and availability without
// reserving anything. Safe to call repeatedly while the publisher is still
// drafting; only finalize binds a number.
func (n *NumberingService) ReserveAndValidate(ctx context.Context, candidate string) (*NumberAvailability, error) {
	result := &NumberAvailability{Candidate: strings.TrimSpace(candidate)}

	if _, err := ParseLetterNumber(candidate); err != nil {
		return result, nil
	}
	result.IsValidFormat = true

	var existing models.LetterNumber
	err := n.db.WithContext(ctx).
		Where("letter_number = ? AND superseded_at IS NULL", result.Candidate).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		result.IsAvailable = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check number availability: %w", err)
	}

	conflict := existing.LetterID
	result.ConflictLetterID = &conflict
	return result, nil
}

// finalizeNumber permanently binds a candidate number to a letter. Called
// only inside the publish transaction: the insert into the number-keyed
// registry re-checks uniqueness at commit time, and a duplicate-key error
// from a concurrent publisher aborts the whole publish.
func finalizeNumber(tx *gorm.DB, letterID int, candidate string, now time.Time) (string, error) {
	parts, err := ParseLetterNumber(candidate)
	if err != nil {
		return "", err
	}
	committed := strings.TrimSpace(candidate)

	// Look up by primary key, superseded rows included: a number amended
	// away keeps its registry row, and rebinding it must reactivate that
	// row rather than collide with it on insert.
	var existing models.LetterNumber
	err = tx.Where("letter_number = ?", committed).First(&existing).Error
	if err == nil {
		if existing.IsActive() {
			if existing.LetterID == letterID {
				return committed, nil
			}
			return "", fmt.Errorf("%w: held by letter %d", ErrNumberConflict, existing.LetterID)
		}

		result := tx.Model(&models.LetterNumber{}).
			Where("letter_number = ? AND superseded_at IS NOT NULL", committed).
			Updates(map[string]interface{}{
				"letter_id":     letterID,
				"sequence":      parts.Sequence,
				"unit_code":     parts.UnitCode,
				"category":      parts.Category,
				"month_roman":   parts.MonthRoman,
				"year":          parts.Year,
				"issued_at":     now,
				"superseded_at": nil,
			})
		if result.Error != nil {
			return "", fmt.Errorf("failed to rebind letter number: %w", result.Error)
		}
		// A concurrent publisher reactivated it first.
		if result.RowsAffected == 0 {
			return "", fmt.Errorf("%w: claimed concurrently", ErrNumberConflict)
		}
		return committed, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to re-validate number: %w", err)
	}

	record := models.LetterNumber{
		LetterNumber: committed,
		LetterID:     letterID,
		Sequence:     parts.Sequence,
		UnitCode:     parts.UnitCode,
		Category:     parts.Category,
		MonthRoman:   parts.MonthRoman,
		Year:         parts.Year,
		IssuedAt:     now,
	}
	if err := tx.Create(&record).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return "", fmt.Errorf("%w: claimed concurrently", ErrNumberConflict)
		}
		return "", fmt.Errorf("failed to register letter number: %w", err)
	}

	return committed, nil
}

// Amend replaces the number of an already-completed letter. The only path by
// which a letter number changes after completion: the old registry row is
// superseded, never deleted.
func (n *NumberingService) Amend(ctx context.Context, letterID int, newNumber string, actorID int, ipAddress string) (*models.Letter, error) {
	var letter models.Letter
	err := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("letter_id = ? AND deleted_at IS NULL", letterID).
			First(&letter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLetterNotFound
			}
			return fmt.Errorf("failed to load letter: %w", err)
		}

		if letter.Status != models.LetterStatusCompleted || letter.LetterNumber == nil {
			return ErrNotCompleted
		}

		now := n.clock()
		oldNumber := *letter.LetterNumber
		committed := strings.TrimSpace(newNumber)
		if committed == oldNumber {
			return nil
		}

		if _, err := finalizeNumber(tx, letterID, committed, now); err != nil {
			return err
		}

		if err := tx.Model(&models.LetterNumber{}).
			Where("letter_number = ?", oldNumber).
			Update("superseded_at", now).Error; err != nil {
			return fmt.Errorf("failed to supersede old number: %w", err)
		}

		if err := tx.Model(&models.Letter{}).
			Where("letter_id = ?", letterID).
			Updates(map[string]interface{}{
				"letter_number": committed,
				"updated_at":    now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update letter number: %w", err)
		}
		letter.LetterNumber = &committed
		letter.UpdatedAt = now

		values, _ := json.Marshal(map[string]string{
			"old_number": oldNumber,
			"new_number": committed,
		})
		entityID := letterID
		serialized := string(values)
		description := "Letter number amended"
		audit := models.AuditLog{
			UserID:       actorID,
			Action:       "amend_number",
			EntityType:   "letter",
			EntityID:     &entityID,
			EntityNumber: &committed,
			NewValues:    &serialized,
			Description:  &description,
			IPAddress:    ipAddress,
			CreatedAt:    now,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// isDuplicateKeyErr classifies MySQL duplicate-entry violations (error 1062),
// the atomic test-and-set behind commit-time number uniqueness.
func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
