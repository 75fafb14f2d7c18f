package routes

import (
	"letter-workflow-api/controllers"
	"letter-workflow-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Public letter verification (no auth, read-only)
			public.GET("/verify/:code", controllers.VerifyLetter)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"success": true,
					"message": "Letter Workflow API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Letters
			letters := protected.Group("/letters")
			{
				letters.GET("", controllers.GetLetters)
				letters.GET("/:id", controllers.GetLetter)
				letters.GET("/:id/history", controllers.GetLetterHistory)

				// Only applicants create, edit and submit drafts
				letters.POST("", middleware.RequireRole("applicant"), controllers.CreateLetter)
				letters.PUT("/:id", middleware.RequireRole("applicant"), controllers.UpdateLetter)
				letters.POST("/:id/submit", middleware.RequireRole("applicant"), controllers.SubmitLetter)

				// Workflow actions; the engine validates whose turn it is
				letters.POST("/:id/actions", controllers.ActOnLetter)

				// Artifact attachment while at the acting step
				letters.POST("/:id/signature", middleware.RequireRole("dean"), controllers.AttachSignature)
				letters.POST("/:id/stamp", middleware.RequireRole("publisher"), controllers.AttachStamp)
				letters.POST("/:id/number", middleware.RequireRole("publisher"), controllers.SetNumberCandidate)
				letters.POST("/:id/number/amend", middleware.RequireRole("publisher"), controllers.AmendNumber)
			}

			// Letter numbering (publisher tooling)
			numbers := protected.Group("/numbers")
			numbers.Use(middleware.RequireRole("publisher"))
			{
				numbers.GET("/preview", controllers.PreviewNumber)
				numbers.POST("/validate", controllers.ValidateNumber)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetMyNotifications)
				notifications.PUT("/:notification_id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}
		}
	}
}
