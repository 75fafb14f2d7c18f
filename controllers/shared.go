package controllers

import (
	"errors"
	"net/http"

	"letter-workflow-api/services"

	"github.com/gin-gonic/gin"
)

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

func getCurrentRole(c *gin.Context) (services.Role, bool) {
	if v, ok := c.Get("role"); ok {
		if role, ok := v.(string); ok && role != "" {
			return services.Role(role), true
		}
	}
	return "", false
}

var workflowErrorStatus = map[string]int{
	"TERMINAL_STATE":          http.StatusConflict,
	"NOT_YOUR_TURN":           http.StatusForbidden,
	"INVALID_REVISION_TARGET": http.StatusUnprocessableEntity,
	"INCOMPLETE_PUBLICATION":  http.StatusUnprocessableEntity,
	"NUMBER_CONFLICT":         http.StatusConflict,
	"UNKNOWN_ROLE":            http.StatusBadRequest,
	"UNKNOWN_ACTION":          http.StatusBadRequest,
	"NOTE_REQUIRED":           http.StatusUnprocessableEntity,
	"ARTIFACT_REQUIRED":       http.StatusUnprocessableEntity,
	"INVALID_NUMBER_FORMAT":   http.StatusUnprocessableEntity,
	"NOT_FOUND":               http.StatusNotFound,
	"LETTER_NOT_FOUND":        http.StatusNotFound,
	"NOT_COMPLETED":           http.StatusConflict,
}

// respondWorkflowError maps the structured workflow error taxonomy to HTTP
// statuses. Anything else is an infrastructure failure and stays a 500; the
// UI localizes messages from the code, so codes are part of the contract.
func respondWorkflowError(c *gin.Context, err error) {
	var workflowErr *services.WorkflowError
	if errors.As(err, &workflowErr) {
		status, ok := workflowErrorStatus[workflowErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": workflowErr.Message,
			"code":  workflowErr.Code,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
