package controllers

import (
	"net/http"

	"applicant-api-io/api/internal/helpers"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

// identityFields are the multipart fields accepted for identity documents.
var identityFields = []string{"nidFrontDoc", "nidBackDoc", "passportFrontDoc", "passportBackDoc", "birthRegDoc"}

type ProfileController struct {
	profileService services.ProfileService
}

func InitProfileController(profileService services.ProfileService) *ProfileController {
	return &ProfileController{profileService: profileService}
}

func (pc *ProfileController) GetMe(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	view, err := pc.profileService.GetMe(ctx, principal)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Profile retrieved successfully", view)
}

func (pc *ProfileController) DeleteMe(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	if err := pc.profileService.DeleteMe(ctx, principal); err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Profile deleted successfully", nil)
}

func (pc *ProfileController) UpsertBasic(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	var req models.BasicInfoRequest
	if !BindAndValidate(c, &req) {
		return
	}

	files, err := helpers.ReadFiles(c, "profilePic")
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	defer files.Close()

	view, err := pc.profileService.UpsertBasic(ctx, principal, req, files.Get("profilePic"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Basic information saved successfully", view)
}

func (pc *ProfileController) UpsertIdentity(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	var req models.IdentityRequest
	if !BindAndValidate(c, &req) {
		return
	}

	files, err := helpers.ReadFiles(c, identityFields...)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	defer files.Close()

	view, err := pc.profileService.UpsertIdentity(ctx, principal, req, files.All())
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Identity information saved successfully", view)
}

func (pc *ProfileController) UpsertEmergencyContact(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	var req models.EmergencyContactRequest
	if !BindAndValidate(c, &req) {
		return
	}

	view, err := pc.profileService.UpsertEmergencyContact(ctx, principal, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Emergency contact saved successfully", view)
}

func (pc *ProfileController) UpsertAddress(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	var req models.AddressRequest
	if !BindAndValidate(c, &req) {
		return
	}

	view, err := pc.profileService.UpsertAddress(ctx, principal, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Address saved successfully", view)
}

func (pc *ProfileController) UpsertOther(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	var req models.OtherInfoRequest
	if !BindAndValidate(c, &req) {
		return
	}

	view, err := pc.profileService.UpsertOther(ctx, principal, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Other information saved successfully", view)
}

func (pc *ProfileController) UpsertWorkInfo(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	var req models.WorkInfoRequest
	if !BindAndValidate(c, &req) {
		return
	}

	view, err := pc.profileService.UpsertWorkInfo(ctx, principal, req)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, "Work information saved successfully", view)
}

type singleUpload func(p models.Principal, file storage.Upload) (*services.ProfileView, error)

// uploadOne serves endpoints that take exactly one mandatory file.
func (pc *ProfileController) uploadOne(c *gin.Context, field, message string, upload singleUpload) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	files, file, ok := helpers.RequireFile(c, field)
	if !ok {
		return
	}
	defer files.Close()

	view, err := upload(principal, *file)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, message, view)
}

func (pc *ProfileController) UploadCV(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadOne(c, "cvFile", "CV uploaded successfully", func(p models.Principal, f storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadCV(ctx, p, f)
	})
}

func (pc *ProfileController) UploadTestimonial(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadOne(c, "testimonialFile", "Testimonial uploaded successfully", func(p models.Principal, f storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadTestimonial(ctx, p, f)
	})
}

func (pc *ProfileController) UploadMyVerified(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadOne(c, "myVerifiedFile", "Verification document uploaded successfully", func(p models.Principal, f storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadMyVerified(ctx, p, f)
	})
}

func (pc *ProfileController) UploadCommitment(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadOne(c, "commitmentFile", "Commitment uploaded successfully", func(p models.Principal, f storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadCommitment(ctx, p, f)
	})
}

type pairUpload func(p models.Principal, first, second *storage.Upload) (*services.ProfileView, error)

// uploadTwo serves endpoints that take up to two optional files.
func (pc *ProfileController) uploadTwo(c *gin.Context, first, second, message string, upload pairUpload) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		return
	}

	files, err := helpers.ReadFiles(c, first, second)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	defer files.Close()

	view, err := upload(principal, files.Get(first), files.Get(second))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}

	util.HandleSuccess(c, http.StatusOK, message, view)
}

func (pc *ProfileController) UploadEducation(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadTwo(c, "sscCertFile", "lastCertFile", "Education certificates uploaded successfully", func(p models.Principal, ssc, last *storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadEducation(ctx, p, ssc, last)
	})
}

func (pc *ProfileController) UploadNDA(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadTwo(c, "firstPageFile", "secondPageFile", "NDA uploaded successfully", func(p models.Principal, first, second *storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadNDA(ctx, p, first, second)
	})
}

func (pc *ProfileController) UploadAgreement(c *gin.Context) {
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pc.uploadTwo(c, "firstPageFile", "secondPageFile", "Agreement uploaded successfully", func(p models.Principal, first, second *storage.Upload) (*services.ProfileView, error) {
		return pc.profileService.UploadAgreement(ctx, p, first, second)
	})
}
