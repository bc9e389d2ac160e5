package controllers

import (
	"context"
	"net/http"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/internal/validators"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// WithTimeout creates a context with the standard request timeout
func WithTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), common.REQUEST_TIMEOUT_SECS)
}

// CurrentPrincipal returns the caller stored by the auth middleware and
// replies 401 when there is none.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		util.HandleError(c, http.StatusUnauthorized, util.Unauthorized("Access token is required"))
		return principal, false
	}
	return principal, true
}

// ParseObjectIDParam parses an ObjectID from URL parameter and handles errors
func ParseObjectIDParam(c *gin.Context, paramName string) (primitive.ObjectID, bool) {
	objectID, err := primitive.ObjectIDFromHex(c.Param(paramName))
	if err != nil {
		util.HandleError(c, http.StatusBadRequest, util.Invalid([]util.FieldError{{Path: paramName, Message: "Invalid " + paramName}}))
		return primitive.NilObjectID, false
	}
	return objectID, true
}

// BindAndValidate binds the request body or form into obj and validates it.
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		util.Log.Debug("binding error", zap.Error(err), zap.String("path", c.FullPath()))
		util.HandleError(c, http.StatusBadRequest, util.BadRequest("Invalid request body"))
		return false
	}

	if err := validators.ValidationError(common.Validate, obj); err != nil {
		util.HandleError(c, http.StatusBadRequest, err)
		return false
	}

	return true
}

// BindQueryAndValidate is BindAndValidate for query parameters.
func BindQueryAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		util.HandleError(c, http.StatusBadRequest, util.BadRequest("Invalid query parameters"))
		return false
	}

	if err := validators.ValidationError(common.Validate, obj); err != nil {
		util.HandleError(c, http.StatusBadRequest, err)
		return false
	}

	return true
}
