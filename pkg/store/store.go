// Package store persists profiles, applications and accounts.
package store

import (
	"context"
	"time"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrConflict  = errors.New("version conflict")
)

// Profile section keys accepted by ProfileStore.UpsertSections.
const (
	SectionBasic            = "basic"
	SectionIdentity         = "identity"
	SectionEmergencyContact = "emergency_contact"
	SectionAddress          = "address"
	SectionOther            = "other"
	SectionCvFile           = "cv_file"
	SectionWorkInfo         = "work_info"
	SectionEducationFiles   = "education_files"
	SectionTestimonialFile  = "testimonial_file"
	SectionMyVerifiedFile   = "my_verified_file"
	SectionCommitmentFile   = "commitment_file"
	SectionNdaFiles         = "nda_files"
	SectionAgreementFiles   = "agreement_files"
)

// Sections maps a section key to its new value.
type Sections map[string]any

type ProfileStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	// UpsertSections atomically sets the given sections on the user's
	// profile and returns the stored profile. version is the Version the
	// caller read, 0 when there was no profile yet; if the stored profile
	// no longer matches it nothing is written and ErrConflict is returned.
	UpsertSections(ctx context.Context, userID primitive.ObjectID, version int64, sections Sections, now time.Time) (*models.Profile, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
}

type ApplicationStore interface {
	Insert(ctx context.Context, app models.Application) (*models.Application, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	LatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.Application, error)
	// ListByUser returns every application of the user, newest first.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Application, error)
	// FindByNumber returns the user's application with the given number.
	FindByNumber(ctx context.Context, userID primitive.ObjectID, number string) (*models.Application, error)
	// ApplyReview updates the application only while its status is one of
	// from; otherwise it returns ErrNotFound.
	ApplyReview(ctx context.Context, id primitive.ObjectID, from []models.ApplicationStatus, d models.ReviewDecision) (*models.Application, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus) (*models.Application, error)
	DeleteIfStatus(ctx context.Context, id primitive.ObjectID, status models.ApplicationStatus) error

	GetView(ctx context.Context, id primitive.ObjectID) (*models.ApplicationView, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	Recent(ctx context.Context, limit int) ([]models.RecentApplication, error)
	Search(ctx context.Context, filter models.ApplicationFilter, page util.PaginationArgs) ([]models.ApplicationView, int64, error)
}

type CooldownStore interface {
	// Claim records now as the user's latest submission unless one was
	// recorded less than period ago, and reports whether it did.
	Claim(ctx context.Context, userID primitive.ObjectID, now time.Time, period time.Duration) (bool, error)
	LastSubmitted(ctx context.Context, userID primitive.ObjectID) (time.Time, error)
	Release(ctx context.Context, userID primitive.ObjectID, at time.Time) error
}

type UserStore interface {
	UpsertByPhone(ctx context.Context, phone string, now time.Time) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type AdminStore interface {
	Create(ctx context.Context, admin models.Admin) (*models.Admin, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	VerifyEmail(ctx context.Context, token string, now time.Time) (*models.Admin, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, email, token, passwordHash string, now time.Time) (*models.Admin, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error
}

type OTPStore interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

// Transactor runs fn so that the store calls it makes commit or abort
// together. fn must use the context it is given.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
