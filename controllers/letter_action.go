package controllers

import (
	"errors"
	"net/http"

	"letter-workflow-api/config"
	"letter-workflow-api/services"
	"letter-workflow-api/utils"

	"github.com/gin-gonic/gin"
)

// ActOnLetter applies one workflow action (approve, reject, revision,
// resubmit) on behalf of the calling user's role. The workflow engine
// decides legality; this handler only shapes the request and the response.
func ActOnLetter(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	role, ok := getCurrentRole(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Role context missing"})
		return
	}

	letterID, err := parseLetterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid letter ID"})
		return
	}

	var req struct {
		Action     string `json:"action" binding:"required"`
		Note       string `json:"note"`
		TargetStep *int   `json:"target_step"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	input := &services.ActionInput{
		Action:     req.Action,
		Note:       utils.SanitizeInput(req.Note),
		TargetStep: req.TargetStep,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	}

	svc := services.NewWorkflowService(config.DB)
	letter, err := svc.Act(c.Request.Context(), letterID, userID, role, input)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"letter":  letter,
	})
}

// AttachSignature stores the dean's signature reference on a letter at the
// dean's step. Idempotent; repeat calls overwrite the reference.
func AttachSignature(c *gin.Context) {
	attachArtifact(c, func(svc *services.WorkflowService, letterID int, role services.Role, ref string) error {
		_, err := svc.AttachSignature(c.Request.Context(), letterID, role, ref)
		return err
	}, "signature_ref")
}

// AttachStamp stores the official stamp reference on a letter at the
// publisher's step.
func AttachStamp(c *gin.Context) {
	attachArtifact(c, func(svc *services.WorkflowService, letterID int, role services.Role, ref string) error {
		_, err := svc.AttachStamp(c.Request.Context(), letterID, role, ref)
		return err
	}, "stamp_ref")
}

func attachArtifact(c *gin.Context, attach func(*services.WorkflowService, int, services.Role, string) error, field string) {
	role, ok := getCurrentRole(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Role context missing"})
		return
	}

	letterID, err := parseLetterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid letter ID"})
		return
	}

	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	svc := services.NewWorkflowService(config.DB)
	if err := attach(svc, letterID, role, req[field]); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Artifact attached",
	})
}

// SetNumberCandidate stores the publisher's drafted letter number after an
// advisory validation. The number only becomes binding when the publish
// action commits.
func SetNumberCandidate(c *gin.Context) {
	role, ok := getCurrentRole(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Role context missing"})
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

	svc := services.NewWorkflowService(config.DB)
	letter, availability, err := svc.SetNumberCandidate(c.Request.Context(), letterID, role, req.LetterNumber)
	if err != nil {
		if availability != nil {
			var workflowErr *services.WorkflowError
			status := http.StatusUnprocessableEntity
			message := err.Error()
			if errors.As(err, &workflowErr) {
				if s, ok := workflowErrorStatus[workflowErr.Code]; ok {
					status = s
				}
				message = workflowErr.Message
			}
			c.JSON(status, gin.H{
				"error":        message,
				"availability": availability,
			})
			return
		}
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"letter":       letter,
		"availability": availability,
	})
}
