package controllers

import (
	"net/http"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type ApplicationController struct {
	applicationService services.ApplicationService
}

func InitApplicationController(applicationService services.ApplicationService) *ApplicationController {
	return &ApplicationController{applicationService: applicationService}
}

func (ac *ApplicationController) Submit(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	app, err := ac.applicationService.Submit(ctx, principal)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusCreated, "Application submitted successfully", app)
}

func (ac *ApplicationController) MyStatus(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	status, err := ac.applicationService.MyStatus(ctx, principal)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Application status retrieved successfully", status)
}

func (ac *ApplicationController) Cancel(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	if err := ac.applicationService.Cancel(ctx, principal); err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Application cancelled successfully", nil)
}

func (ac *ApplicationController) MyApplications(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	apps, err := ac.applicationService.MyApplications(ctx, principal)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Applications retrieved successfully", apps)
}

func (ac *ApplicationController) MyApplication(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	app, err := ac.applicationService.MyApplication(ctx, principal, c.Param("applicationNumber"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Application retrieved successfully", app)
}

// Get returns one application with its applicant's profile.
func (ac *ApplicationController) Get(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	id, ok := ParseObjectIDParam(c, "id")
	if !ok {
		return
	}

	view, err := ac.applicationService.Get(ctx, id)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Application retrieved successfully", view)
}

func (ac *ApplicationController) StartReview(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	admin, ok := CurrentPrincipal(c)
	if !ok {
		return
	}
	id, ok := ParseObjectIDParam(c, "id")
	if !ok {
		return
	}

	app, err := ac.applicationService.StartReview(ctx, admin, id)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Application moved to review", app)
}

// Review records the admin's decision.
func (ac *ApplicationController) Review(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	admin, ok := CurrentPrincipal(c)
	if !ok {
		return
	}
	id, ok := ParseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ReviewRequest
	if !BindAndValidate(c, &req) {
		return
	}

	app, err := ac.applicationService.Review(ctx, admin, id, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Application "+string(app.Status)+" successfully", app)
}
