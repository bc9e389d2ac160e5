package eligibility

import (
	"testing"
	"time"

	"applicant-api-io/api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func completeProfile() *models.Profile {
	dob := time.Date(1995, 3, 10, 0, 0, 0, 0, time.UTC)
	return &models.Profile{
		Basic: &models.BasicInfo{
			FullName:       "Rahim Uddin",
			Phone:          "01712345678",
			DateOfBirth:    &dob,
			EducationLevel: "HSC",
			Gender:         models.Male,
			ProfilePicFile: &models.FileRef{Name: "pic.jpg", URL: "https://cdn/pic.jpg"},
		},
		Identity: &models.Identity{
			Number:   "1234567890",
			DocFiles: []models.IdentityDoc{{Type: models.DocTypeNID, Side: models.DocSideFront, URL: "https://cdn/nid.jpg"}},
		},
		EmergencyContact: &models.EmergencyContact{Name: "Karim", Phone: "+8801812345678"},
		Address: &models.Address{
			Present:   &models.AddressLine{District: "Dhaka", Upazila: "Mirpur", Street: "Road 1"},
			Permanent: &models.AddressLine{District: "Khulna", Upazila: "Sonadanga", Street: "Road 2"},
		},
		Other:  &models.OtherInfo{FathersName: "Abdul", MothersName: "Amena"},
		CvFile: &models.FileRef{Name: "cv.pdf", URL: "https://cdn/cv.pdf"},
	}
}

func TestCompleteProfileCanApply(t *testing.T) {
	p := completeProfile()
	assert.Empty(t, MissingSections(p, now))
	assert.True(t, CanApply(p, nil, now))
}

func TestMissingAnySectionBlocksApply(t *testing.T) {
	strip := map[string]func(p *models.Profile){
		SectionBasic:            func(p *models.Profile) { p.Basic = nil },
		SectionIdentity:         func(p *models.Profile) { p.Identity.DocFiles = nil },
		SectionEmergencyContact: func(p *models.Profile) { p.EmergencyContact.Phone = "" },
		SectionPresentAddress:   func(p *models.Profile) { p.Address.Present.Street = "" },
		SectionPermanentAddress: func(p *models.Profile) { p.Address.Permanent = nil },
		SectionOther:            func(p *models.Profile) { p.Other.MothersName = "" },
		SectionCV:               func(p *models.Profile) { p.CvFile = &models.FileRef{} },
	}

	for section, mutate := range strip {
		t.Run(section, func(t *testing.T) {
			p := completeProfile()
			mutate(p)
			assert.False(t, CanApply(p, nil, now))
			assert.Equal(t, []string{section}, MissingSections(p, now))
		})
	}
}

func TestBasicRequiresAdult(t *testing.T) {
	p := completeProfile()
	dob := now.AddDate(-18, 0, 1)
	p.Basic.DateOfBirth = &dob
	assert.False(t, BasicComplete(p, now))

	dob = now.AddDate(-18, 0, 0)
	p.Basic.DateOfBirth = &dob
	assert.True(t, BasicComplete(p, now))
}

func TestBasicRequiresProfilePicture(t *testing.T) {
	p := completeProfile()
	p.Basic.ProfilePicFile = nil
	assert.False(t, BasicComplete(p, now))
}

func TestNilProfile(t *testing.T) {
	assert.False(t, CanApply(nil, nil, now))
	r := Evaluate(nil, nil, now)
	assert.False(t, r.Complete)
	assert.Len(t, r.Missing, 7)
	assert.False(t, NeedsAdditionalInfo(nil, &models.Application{Status: models.ApplicationStatusApproved}, models.DefaultRequiredArtifacts))
}

func TestCooldownIsReportedSeparately(t *testing.T) {
	p := completeProfile()
	last := now.Add(-2 * time.Hour)

	r := Evaluate(p, &last, now)
	assert.True(t, r.Complete)
	assert.Empty(t, r.Missing)
	assert.True(t, r.InCooldown)
	assert.Equal(t, 22, r.CooldownHours)
	assert.False(t, r.CanApply())

	p.CvFile = nil
	r = Evaluate(p, &last, now)
	assert.False(t, r.Complete)
	assert.True(t, r.InCooldown)
}

func TestCooldownElapsed(t *testing.T) {
	p := completeProfile()
	last := now.Add(-24 * time.Hour)
	assert.True(t, CanApply(p, &last, now))

	last = now.Add(-24*time.Hour + time.Second)
	assert.False(t, CanApply(p, &last, now))
}

func TestCooldownHoursRoundsUp(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		hours   int
	}{
		{0, 24},
		{time.Minute, 24},
		{59 * time.Minute, 24},
		{time.Hour, 23},
		{23*time.Hour + 59*time.Minute, 1},
		{24 * time.Hour, 0},
		{30 * time.Hour, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.hours, CooldownHours(now.Add(-c.elapsed), now), "elapsed %s", c.elapsed)
	}
}

func TestNeedsAdditionalInfo(t *testing.T) {
	p := completeProfile()
	required := models.DefaultRequiredArtifacts

	assert.False(t, NeedsAdditionalInfo(p, nil, required), "no application")
	assert.False(t, NeedsAdditionalInfo(p, &models.Application{Status: models.ApplicationStatusSubmitted}, required))
	assert.False(t, NeedsAdditionalInfo(p, &models.Application{Status: models.ApplicationStatusRejected}, required))
	assert.True(t, NeedsAdditionalInfo(p, &models.Application{Status: models.ApplicationStatusUnderReview}, required))
	assert.True(t, NeedsAdditionalInfo(p, &models.Application{Status: models.ApplicationStatusApproved}, required))
}

func TestNeedsAdditionalInfoSatisfied(t *testing.T) {
	file := func(n string) *models.FileRef { return &models.FileRef{Name: n, URL: "https://cdn/" + n} }
	p := completeProfile()
	p.WorkInfo = &models.WorkInfo{EmployeeId: "E1", Project: "P", Branch: "B", Shift: "Day"}
	p.EducationFiles = &models.EducationFiles{SscCertFile: file("ssc"), LastCertFile: file("last")}
	p.TestimonialFile = file("testimonial")
	p.NdaFiles = &models.PageFiles{FirstPageFile: file("nda1"), SecondPageFile: file("nda2")}
	p.AgreementFiles = &models.PageFiles{FirstPageFile: file("ag1"), SecondPageFile: file("ag2")}
	p.CommitmentFile = file("commitment")
	p.MyVerifiedFile = file("verified")

	app := &models.Application{Status: models.ApplicationStatusApproved}
	assert.False(t, NeedsAdditionalInfo(p, app, models.DefaultRequiredArtifacts))

	p.NdaFiles.SecondPageFile = nil
	assert.True(t, NeedsAdditionalInfo(p, app, models.DefaultRequiredArtifacts))
	assert.Equal(t, []models.Artifact{models.ArtifactNdaFiles}, MissingArtifacts(p, models.DefaultRequiredArtifacts))
}

func TestRequiredArtifactsAreConfigurable(t *testing.T) {
	p := completeProfile()
	p.WorkInfo = &models.WorkInfo{EmployeeId: "E1", Project: "P", Branch: "B", Shift: "Day"}
	app := &models.Application{Status: models.ApplicationStatusApproved}

	require.True(t, NeedsAdditionalInfo(p, app, models.DefaultRequiredArtifacts))
	assert.False(t, NeedsAdditionalInfo(p, app, []models.Artifact{models.ArtifactWorkInfo}))
	assert.False(t, NeedsAdditionalInfo(p, app, nil))
}
