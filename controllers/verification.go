package controllers

import (
	"net/http"

	"letter-workflow-api/config"
	"letter-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// VerifyLetter is the public verification endpoint: resolves a short code to
// the published letter snapshot and counts the view. No authentication; the
// snapshot exposes only what the public page shows.
func VerifyLetter(c *gin.Context) {
	svc := services.NewVerificationService(config.DB)
	result, err := svc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": result,
	})
}
