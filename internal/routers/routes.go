package routers

import (
	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/container"
	"applicant-api-io/api/internal/middleware"
	"applicant-api-io/api/pkg/controllers"

	"github.com/gin-gonic/gin"
)

// InitRoute builds the router. limiter guards the applicant endpoints and
// may be nil.
func InitRoute(sc *container.ServiceContainer, limiter gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CorsMiddleware())

	api := router.Group("/v1")
	{
		api.GET("/ping", controllers.Ping)

		applicant := api.Group("")
		if limiter != nil {
			applicant.Use(limiter)
		}
		setupAuthRoutes(applicant, sc)
		profileRoutes(applicant, sc)
		applicationRoutes(applicant, sc)

		adminRoutes(api, sc)
	}

	return router
}

// setupAuthRoutes configures applicant sign in endpoints
func setupAuthRoutes(api *gin.RouterGroup, sc *container.ServiceContainer) {
	ac := sc.AuthController

	api.POST("/auth/send-otp", ac.SendOTP)
	api.POST("/auth/verify-otp", ac.VerifyOTP)
	api.DELETE("/auth/logout", auth.Auth(sc.Tokens, sc.Blacklist), ac.Logout)
}

func profileRoutes(api *gin.RouterGroup, sc *container.ServiceContainer) {
	pc := sc.ProfileController

	profile := api.Group("/profile", auth.Auth(sc.Tokens, sc.Blacklist), middleware.ApplicantOnly())
	{
		profile.GET("/me", pc.GetMe)
		profile.DELETE("/me", pc.DeleteMe)

		profile.POST("/basic-info", pc.UpsertBasic)
		profile.POST("/identity-info", pc.UpsertIdentity)
		profile.POST("/emergency-contact", pc.UpsertEmergencyContact)
		profile.POST("/address-info", pc.UpsertAddress)
		profile.POST("/other-info", pc.UpsertOther)
		profile.POST("/cv-upload", pc.UploadCV)

		// Post-approval documents
		approved := profile.Group("", middleware.ApprovalGate(sc.ApplicationService))
		approved.POST("/work-info", pc.UpsertWorkInfo)
		approved.POST("/education-upload", pc.UploadEducation)
		approved.POST("/testimonial-upload", pc.UploadTestimonial)
		approved.POST("/my-verified-upload", pc.UploadMyVerified)
		approved.POST("/commitment-upload", pc.UploadCommitment)
		approved.POST("/nda-upload", pc.UploadNDA)
		approved.POST("/agreement-upload", pc.UploadAgreement)
	}
}

func applicationRoutes(api *gin.RouterGroup, sc *container.ServiceContainer) {
	ac := sc.ApplicationController

	application := api.Group("/application", auth.Auth(sc.Tokens, sc.Blacklist), middleware.ApplicantOnly())
	{
		application.POST("/submit", ac.Submit)
		application.GET("/my-status", ac.MyStatus)
		application.GET("/my-applications", ac.MyApplications)
		application.GET("/:applicationNumber", ac.MyApplication)
		application.DELETE("/cancel", ac.Cancel)
	}
}

func adminRoutes(api *gin.RouterGroup, sc *container.ServiceContainer) {
	admin := api.Group("/admin")

	admin.POST("/register", sc.AdminController.Register)
	admin.POST("/login", sc.AdminController.Login)
	admin.POST("/verify-email", sc.AdminController.VerifyEmail)
	admin.POST("/forget-auth", sc.AdminController.ForgetAuth)
	admin.POST("/reset-auth", sc.AdminController.ResetAuth)

	{
		secured := admin.Group("", auth.Auth(sc.Tokens, sc.Blacklist), middleware.AdminOnly())
		secured.GET("/me", sc.AdminController.Me)

		secured.GET("/applications", sc.DashboardController.Search)
		secured.GET("/applications/:id", sc.ApplicationController.Get)
		secured.PUT("/applications/:id", sc.ApplicationController.Review)
		secured.PUT("/applications/:id/start-review", sc.ApplicationController.StartReview)

		secured.GET("/dashboard/stats", sc.DashboardController.Stats)
		secured.GET("/dashboard/recent", sc.DashboardController.Recent)
	}
}
