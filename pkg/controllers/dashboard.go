package controllers

import (
	"net/http"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboardService services.DashboardService
}

func InitDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

func (dc *DashboardController) Stats(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	stats, err := dc.dashboardService.Stats(ctx)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

func (dc *DashboardController) Recent(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	recent, err := dc.dashboardService.Recent(ctx)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Recent applications retrieved successfully", recent)
}

// Search lists applications matching the query string filters.
func (dc *DashboardController) Search(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.ApplicationSearchRequest
	if !BindQueryAndValidate(c, &req) {
		return
	}

	page, err := dc.dashboardService.Search(ctx, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Applications retrieved successfully", page)
}
