package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/notify"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/store/storetest"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	pdfBytes = append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("0"), 64)...)
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	db        *storetest.DB
	files     *storage.Memory
	sent      *notify.Recorder
	events    *events.Recorder
	clock     *fakeClock
	tokens    *auth.Tokens
	blacklist *auth.MemoryBlacklist

	profiles     ProfileService
	applications ApplicationService
	dashboard    DashboardService
	admins       AdminService
	otp          OTPService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
	db := storetest.New()
	db.SetClock(clock.Now)
	files := storage.NewMemory()
	sent := &notify.Recorder{}
	recorder := &events.Recorder{}
	dispatcher := notify.NewDispatcher(sent, sent, storage.Inline{})
	cleanup := storage.NewDeferred(files, storage.Inline{})
	tokens := auth.NewTokens("test-secret", time.Hour, time.Hour)
	tokens.Now = clock.Now
	blacklist := auth.NewMemoryBlacklist()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := Clock(clock.Now)
	return &fixture{
		db:        db,
		files:     files,
		sent:      sent,
		events:    recorder,
		clock:     clock,
		tokens:    tokens,
		blacklist: blacklist,

		profiles:     NewProfileService(db.Profiles(), db.Applications(), db.Cooldowns(), files, cleanup, recorder, models.DefaultRequiredArtifacts, now),
		applications: NewApplicationService(db.Profiles(), db.Applications(), db.Cooldowns(), db.Transactor(), node, recorder, dispatcher, now),
		dashboard:    NewDashboardService(db.Applications()),
		admins:       NewAdminService(db.Admins(), tokens, dispatcher, "https://app.example.com", bcrypt.MinCost, now),
		otp:          NewOTPService(db.OTPs(), db.Users(), tokens, blacklist, dispatcher, now),
	}
}

func applicantPrincipal() models.Principal {
	return models.Principal{ID: primitive.NewObjectID(), Role: models.RoleApplicant, Phone: "01712345678"}
}

func adminPrincipal() models.Principal {
	return models.Principal{ID: primitive.NewObjectID(), Role: models.RoleAdmin, Email: "admin@example.com"}
}

func pngUpload(field string) *storage.Upload {
	return &storage.Upload{Field: field, Filename: field + ".png", Body: bytes.NewReader(pngBytes)}
}

func pdfUpload(field string) *storage.Upload {
	return &storage.Upload{Field: field, Filename: field + ".pdf", Body: bytes.NewReader(pdfBytes)}
}

func basicRequest() models.BasicInfoRequest {
	return models.BasicInfoRequest{
		FullName:       "Rahim Uddin",
		Phone:          "01712345678",
		Email:          "rahim@example.com",
		DateOfBirth:    "1995-05-10",
		EducationLevel: "HSC",
		Gender:         models.Male,
	}
}

// completeProfile fills every section required to apply.
func (f *fixture) completeProfile(t *testing.T, p models.Principal) *ProfileView {
	t.Helper()
	ctx := context.Background()

	_, err := f.profiles.UpsertBasic(ctx, p, basicRequest(), pngUpload("profilePic"))
	require.NoError(t, err)
	_, err = f.profiles.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "1990123456789"}, []storage.Upload{*pdfUpload("nidFrontDoc")})
	require.NoError(t, err)
	_, err = f.profiles.UpsertEmergencyContact(ctx, p, models.EmergencyContactRequest{Name: "Karim Uddin", Phone: "+8801812345678"})
	require.NoError(t, err)
	line := models.AddressLineRequest{District: "Dhaka", Upazila: "Savar", Street: "12 Lake Road"}
	_, err = f.profiles.UpsertAddress(ctx, p, models.AddressRequest{Present: line, Permanent: line})
	require.NoError(t, err)
	_, err = f.profiles.UpsertOther(ctx, p, models.OtherInfoRequest{FathersName: "Abdul Uddin", MothersName: "Amina Begum"})
	require.NoError(t, err)
	view, err := f.profiles.UploadCV(ctx, p, *pdfUpload("cvFile"))
	require.NoError(t, err)
	return view
}

// submitted completes the profile and submits an application.
func (f *fixture) submitted(t *testing.T, p models.Principal) *models.Application {
	t.Helper()
	f.completeProfile(t, p)
	app, err := f.applications.Submit(context.Background(), p)
	require.NoError(t, err)
	return app
}
