package controllers

import (
	"net/http"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	adminService services.AdminService
}

func InitAdminController(adminService services.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

func (ac *AdminController) Register(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.AdminRegisterRequest
	if !BindAndValidate(c, &req) {
		return
	}

	admin, err := ac.adminService.Register(ctx, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusCreated, "Admin registered. Check your email to verify the account", admin)
}

func (ac *AdminController) VerifyEmail(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.AdminVerifyEmailRequest
	if !BindAndValidate(c, &req) {
		return
	}

	admin, err := ac.adminService.VerifyEmail(ctx, req.Token)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Email verified successfully", admin)
}

func (ac *AdminController) Login(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.AdminLoginRequest
	if !BindAndValidate(c, &req) {
		return
	}

	result, err := ac.adminService.Login(ctx, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Login successful", result)
}

// ForgetAuth answers the same way whether or not the email is
// registered.
func (ac *AdminController) ForgetAuth(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.AdminForgetAuthRequest
	if !BindAndValidate(c, &req) {
		return
	}

	if err := ac.adminService.ForgetAuth(ctx, req.Email); err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "If the email is registered, a reset link has been sent", nil)
}

func (ac *AdminController) ResetAuth(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.AdminResetAuthRequest
	if !BindAndValidate(c, &req) {
		return
	}

	if err := ac.adminService.ResetAuth(ctx, req); err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Password reset successfully", nil)
}

func (ac *AdminController) Me(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	admin, err := ac.adminService.Me(ctx, principal)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Admin retrieved successfully", admin)
}
