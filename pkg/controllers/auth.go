package controllers

import (
	"net/http"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	otpService services.OTPService
}

func InitAuthController(otpService services.OTPService) *AuthController {
	return &AuthController{otpService: otpService}
}

// SendOTP texts a sign in code to the phone number.
func (ac *AuthController) SendOTP(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.SendOTPRequest
	if !BindAndValidate(c, &req) {
		return
	}

	if err := ac.otpService.SendOTP(ctx, req.Phone); err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "OTP sent successfully", nil)
}

// VerifyOTP signs the applicant in.
func (ac *AuthController) VerifyOTP(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	var req models.VerifyOTPRequest
	if !BindAndValidate(c, &req) {
		return
	}

	result, err := ac.otpService.VerifyOTP(ctx, req.Phone, req.Otp)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Login successful", result)
}

// Logout revokes the token the request was made with.
func (ac *AuthController) Logout(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	token, claim, ok := auth.CurrentToken(c)
	if !ok {
		util.HandleError(c, http.StatusUnauthorized, util.Unauthorized("Access token is required"))
		return
	}

	if err := ac.otpService.Logout(ctx, token, claim.ExpiresAt()); err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Logged out successfully", nil)
}
