package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"letter-workflow-api/config"
	"letter-workflow-api/models"
	"letter-workflow-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateLetter creates a new draft owned by the calling applicant. The form
// payload is stored as-is; field-level validation happens upstream.
func CreateLetter(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req struct {
		FormData json.RawMessage `json:"form_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now()
	letter := models.Letter{
		ApplicantID: userID,
		CurrentStep: services.StepApplicant,
		Status:      models.LetterStatusDraft,
		FormData:    string(req.FormData),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := config.DB.Create(&letter).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create letter"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"letter":  letter,
	})
}

// UpdateLetter replaces the form payload of a draft, or of a letter routed
// back to the applicant for revision. Nothing else is editable here.
func UpdateLetter(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	letterID, err := parseLetterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid letter ID"})
		return
	}

	var req struct {
		FormData json.RawMessage `json:"form_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var letter models.Letter
	if err := config.DB.
		Where("letter_id = ? AND deleted_at IS NULL", letterID).
		First(&letter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Letter not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load letter"})
		return
	}

	if letter.ApplicantID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your letter"})
		return
	}

	editable := letter.Status == models.LetterStatusDraft ||
		(letter.Status == models.LetterStatusRevisionRequested && letter.CurrentStep == services.StepApplicant)
	if !editable {
		c.JSON(http.StatusConflict, gin.H{"error": "Letter is not editable in its current state"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.Letter{}).
		Where("letter_id = ?", letter.LetterID).
		Updates(map[string]interface{}{
			"form_data":  string(req.FormData),
			"updated_at": now,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update letter"})
		return
	}

	letter.FormData = string(req.FormData)
	letter.UpdatedAt = now
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"letter":  letter,
	})
}

// SubmitLetter moves a draft into review at the first reviewer.
func SubmitLetter(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	letterID, err := parseLetterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid letter ID"})
		return
	}

	svc := services.NewWorkflowService(config.DB)
	letter, err := svc.SubmitDraft(c.Request.Context(), letterID, userID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Letter submitted for review",
		"letter":  letter,
	})
}

// GetLetter returns one letter with its history. Applicants see only their
// own letters; pipeline staff see everything.
func GetLetter(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	role, _ := getCurrentRole(c)

	letterID, err := parseLetterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid letter ID"})
		return
	}

	var letter models.Letter
	if err := config.DB.Preload("Applicant").Preload("Verification").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("history_id ASC")
		}).
		Where("letter_id = ? AND deleted_at IS NULL", letterID).
		First(&letter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Letter not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load letter"})
		return
	}

	if role == services.RoleApplicant && letter.ApplicantID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your letter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"letter":  letter,
	})
}

// GetLetters lists letters. Applicants get their own; staff get the queue
// sitting at their step by default, or everything with ?scope=all.
func GetLetters(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	role, _ := getCurrentRole(c)

	query := config.DB.Preload("Applicant").
		Where("deleted_at IS NULL")

	if role == services.RoleApplicant {
		query = query.Where("applicant_id = ?", userID)
	} else if c.Query("scope") != "all" {
		step, err := services.StepOf(role)
		if err != nil {
			respondWorkflowError(c, err)
			return
		}
		query = query.Where("current_step = ? AND status IN ?", step,
			[]string{models.LetterStatusInReview, models.LetterStatusRevisionRequested})
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var letters []models.Letter
	if err := query.Order("updated_at DESC").Find(&letters).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch letters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"letters": letters,
		"total":   len(letters),
	})
}

// GetLetterHistory returns the ordered audit trail for one letter.
func GetLetterHistory(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	role, _ := getCurrentRole(c)

	letterID, err := parseLetterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid letter ID"})
		return
	}

	var letter models.Letter
	if err := config.DB.
		Where("letter_id = ? AND deleted_at IS NULL", letterID).
		First(&letter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Letter not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load letter"})
		return
	}

	if role == services.RoleApplicant && letter.ApplicantID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your letter"})
		return
	}

	var history []models.LetterStatusHistory
	if err := config.DB.Preload("Actor").
		Where("letter_id = ?", letterID).
		Order("history_id ASC").
		Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
		"total":   len(history),
	})
}

func parseLetterID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid letter id")
	}
	return id, nil
}
