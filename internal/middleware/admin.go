package middleware

import (
	"net/http"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

// AdminOnly restricts a route to the administrator.
func AdminOnly() gin.HandlerFunc {
	return auth.RequireRole(models.RoleAdmin)
}

// ApplicantOnly restricts a route to signed in applicants.
func ApplicantOnly() gin.HandlerFunc {
	return auth.RequireRole(models.RoleApplicant)
}

// ApprovalGate lets applicants through only once their latest application
// is under review or approved.
func ApprovalGate(applications services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.GetPrincipal(c)
		if !ok {
			util.HandleError(c, http.StatusUnauthorized, util.Unauthorized("Access token is required"))
			c.Abort()
			return
		}

		if err := applications.RequireAdditionalInfoStage(c.Request.Context(), principal); err != nil {
			util.HandleServiceError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
