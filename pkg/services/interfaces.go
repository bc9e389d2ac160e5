package services

import (
	"context"
	"time"

	"applicant-api-io/api/pkg/eligibility"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock returns the current time. Services take one so tests can move time.
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

type LoginResult struct {
	Token models.AuthToken `json:"token"`
	User  *models.User     `json:"user"`
}

type AdminLoginResult struct {
	Token models.AuthToken `json:"token"`
	Admin *models.Admin    `json:"admin"`
}

// ProfileView is a profile together with what the applicant can do next.
type ProfileView struct {
	Profile            *models.Profile     `json:"profile"`
	CanApply           bool                `json:"canApply"`
	NeedAdditionalInfo bool                `json:"needAdditionalInfo"`
	Eligibility        eligibility.Result  `json:"eligibility"`
	Application        *models.Application `json:"application"`
}

type MyStatus struct {
	HasApplied  bool                `json:"hasApplied"`
	Application *models.Application `json:"application,omitempty"`
}

// OTPService signs applicants in with a one-time code sent by SMS.
type OTPService interface {
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error)
	Logout(ctx context.Context, token string, expiresAt time.Time) error
}

// ProfileService writes the applicant's profile one section at a time.
// Files stored by a call that fails are removed before it returns.
type ProfileService interface {
	GetMe(ctx context.Context, p models.Principal) (*ProfileView, error)
	DeleteMe(ctx context.Context, p models.Principal) error

	UpsertBasic(ctx context.Context, p models.Principal, req models.BasicInfoRequest, profilePic *storage.Upload) (*ProfileView, error)
	UpsertIdentity(ctx context.Context, p models.Principal, req models.IdentityRequest, docs []storage.Upload) (*ProfileView, error)
	UpsertEmergencyContact(ctx context.Context, p models.Principal, req models.EmergencyContactRequest) (*ProfileView, error)
	UpsertAddress(ctx context.Context, p models.Principal, req models.AddressRequest) (*ProfileView, error)
	UpsertOther(ctx context.Context, p models.Principal, req models.OtherInfoRequest) (*ProfileView, error)
	UploadCV(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error)

	UpsertWorkInfo(ctx context.Context, p models.Principal, req models.WorkInfoRequest) (*ProfileView, error)
	UploadEducation(ctx context.Context, p models.Principal, sscCert, lastCert *storage.Upload) (*ProfileView, error)
	UploadTestimonial(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error)
	UploadMyVerified(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error)
	UploadCommitment(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error)
	UploadNDA(ctx context.Context, p models.Principal, firstPage, secondPage *storage.Upload) (*ProfileView, error)
	UploadAgreement(ctx context.Context, p models.Principal, firstPage, secondPage *storage.Upload) (*ProfileView, error)
}

// ApplicationService drives an application through
// submitted -> under-review -> approved | rejected.
type ApplicationService interface {
	Submit(ctx context.Context, p models.Principal) (*models.Application, error)
	MyStatus(ctx context.Context, p models.Principal) (*MyStatus, error)
	Cancel(ctx context.Context, p models.Principal) error
	MyApplications(ctx context.Context, p models.Principal) ([]models.Application, error)
	// MyApplication returns one of the caller's own applications by number.
	MyApplication(ctx context.Context, p models.Principal, number string) (*models.Application, error)
	// RequireAdditionalInfoStage fails unless the caller's latest
	// application accepts post-approval documents.
	RequireAdditionalInfoStage(ctx context.Context, p models.Principal) error

	StartReview(ctx context.Context, admin models.Principal, id primitive.ObjectID) (*models.Application, error)
	Review(ctx context.Context, admin models.Principal, id primitive.ObjectID, req models.ReviewRequest) (*models.Application, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.ApplicationView, error)
}

type DashboardService interface {
	Stats(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context) ([]models.RecentApplication, error)
	Search(ctx context.Context, req models.ApplicationSearchRequest) (*models.ApplicationPage, error)
}

type AdminService interface {
	Register(ctx context.Context, req models.AdminRegisterRequest) (*models.Admin, error)
	VerifyEmail(ctx context.Context, token string) (*models.Admin, error)
	Login(ctx context.Context, req models.AdminLoginRequest) (*AdminLoginResult, error)
	ForgetAuth(ctx context.Context, email string) error
	ResetAuth(ctx context.Context, req models.AdminResetAuthRequest) error
	Me(ctx context.Context, p models.Principal) (*models.Admin, error)
}
