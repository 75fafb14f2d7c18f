package controllers

import (
	"net/http"
	"strings"

	"letter-workflow-api/config"
	"letter-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// PreviewNumber suggests the next letter number for a unit and category.
// Purely advisory; nothing is reserved.
func PreviewNumber(c *gin.Context) {
	unitCode := strings.TrimSpace(c.Query("unit_code"))
	category := strings.TrimSpace(c.Query("category"))
	if unitCode == "" || category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unit_code and category are required"})
		return
	}

	svc := services.NewNumberingService(config.DB)
	candidate, err := svc.PreviewNext(c.Request.Context(), unitCode, category)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"candidate": candidate,
	})
}

// ValidateNumber checks a candidate's format and availability without
// reserving it. Callable repeatedly while the publisher drafts the number.
func ValidateNumber(c *gin.Context) {
	var req struct {
		LetterNumber string `json:"letter_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	svc := services.NewNumberingService(config.DB)
	availability, err := svc.ReserveAndValidate(c.Request.Context(), req.LetterNumber)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"availability": availability,
	})
}

// AmendNumber corrects the number of an already-completed letter. This is
// the only path by which a committed letter number changes.
func AmendNumber(c *gin.Context) {
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
		LetterNumber string `json:"letter_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	svc := services.NewNumberingService(config.DB)
	letter, err := svc.Amend(c.Request.Context(), letterID, req.LetterNumber, userID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Letter number amended",
		"letter":  letter,
	})
}
