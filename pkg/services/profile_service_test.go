package services

import (
	"bytes"
	"context"
	"testing"

	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/pkg/eligibility"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetMeWithoutProfile(t *testing.T) {
	f := newFixture(t)

	view, err := f.profiles.GetMe(context.Background(), applicantPrincipal())
	require.NoError(t, err)
	assert.Nil(t, view.Profile)
	assert.False(t, view.CanApply)
	assert.False(t, view.NeedAdditionalInfo)
	assert.Nil(t, view.Application)
}

func TestCompleteProfileCanApply(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()

	view := f.completeProfile(t, p)
	assert.True(t, view.CanApply)
	assert.True(t, view.Eligibility.Complete)
	assert.Empty(t, view.Eligibility.Missing)
	assert.Equal(t, "01712345678", view.Profile.Basic.Phone)
	assert.Equal(t, 3, f.files.Count())
}

func TestPartialProfileReportsMissingSections(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()

	view, err := f.profiles.UpsertOther(context.Background(), p, models.OtherInfoRequest{FathersName: "A B", MothersName: "C D"})
	require.NoError(t, err)
	assert.False(t, view.CanApply)
	assert.NotContains(t, view.Eligibility.Missing, eligibility.SectionOther)
	assert.Contains(t, view.Eligibility.Missing, eligibility.SectionBasic)
	assert.Contains(t, view.Eligibility.Missing, eligibility.SectionCV)
}

func TestSectionUpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	req := models.EmergencyContactRequest{Name: "Karim Uddin", Phone: "+8801812345678"}

	first, err := f.profiles.UpsertEmergencyContact(context.Background(), p, req)
	require.NoError(t, err)
	second, err := f.profiles.UpsertEmergencyContact(context.Background(), p, req)
	require.NoError(t, err)

	assert.Equal(t, first.Profile.Id, second.Profile.Id)
	assert.Equal(t, first.Profile.EmergencyContact, second.Profile.EmergencyContact)
	assert.Equal(t, first.Profile.CreatedAt, second.Profile.CreatedAt)
}

func TestSectionsAreIndependent(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	_, err := f.profiles.UpsertOther(ctx, p, models.OtherInfoRequest{FathersName: "A B", MothersName: "C D"})
	require.NoError(t, err)
	view, err := f.profiles.UpsertEmergencyContact(ctx, p, models.EmergencyContactRequest{Name: "Karim", Phone: "+8801812345678"})
	require.NoError(t, err)

	require.NotNil(t, view.Profile.Other)
	assert.Equal(t, "A B", view.Profile.Other.FathersName)
}

func TestUpsertBasicReplacesProfilePic(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	first, err := f.profiles.UpsertBasic(ctx, p, basicRequest(), pngUpload("profilePic"))
	require.NoError(t, err)
	oldURL := first.Profile.Basic.ProfilePicFile.URL

	second, err := f.profiles.UpsertBasic(ctx, p, basicRequest(), pngUpload("profilePic"))
	require.NoError(t, err)

	assert.NotEqual(t, oldURL, second.Profile.Basic.ProfilePicFile.URL)
	assert.False(t, f.files.Has(oldURL))
	assert.Equal(t, 1, f.files.Count())
}

func TestUpsertBasicKeepsPictureWhenNoneUploaded(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	first, err := f.profiles.UpsertBasic(ctx, p, basicRequest(), pngUpload("profilePic"))
	require.NoError(t, err)

	req := basicRequest()
	req.FullName = "Rahim Khan"
	second, err := f.profiles.UpsertBasic(ctx, p, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "Rahim Khan", second.Profile.Basic.FullName)
	assert.Equal(t, first.Profile.Basic.ProfilePicFile.URL, second.Profile.Basic.ProfilePicFile.URL)
}

func TestProfilePicRejectsDocuments(t *testing.T) {
	f := newFixture(t)

	_, err := f.profiles.UpsertBasic(context.Background(), applicantPrincipal(), basicRequest(), pdfUpload("profilePic"))
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindBusiness))
	assert.Equal(t, 0, f.files.Count())
}

func TestOversizedUploadIsRejected(t *testing.T) {
	f := newFixture(t)
	big := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("x"), 5<<20)...)

	_, err := f.profiles.UploadCV(context.Background(), applicantPrincipal(), storage.Upload{Field: "cvFile", Filename: "cv.pdf", Body: bytes.NewReader(big)})
	require.Error(t, err)
	assert.Equal(t, "File too large. Maximum size is 5MB", util.AsError(err).Message)
	assert.Equal(t, 0, f.files.Count())
}

func TestIdentityTypeMismatchDiscardsUpload(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	before, err := f.profiles.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "1990123456789"}, []storage.Upload{*pdfUpload("nidFrontDoc")})
	require.NoError(t, err)
	require.Len(t, before.Profile.Identity.DocFiles, 1)
	nidURL := before.Profile.Identity.DocFiles[0].URL

	_, err = f.profiles.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "AB1234567"}, []storage.Upload{*pdfUpload("passportFrontDoc")})
	require.Error(t, err)
	assert.Equal(t, "You can only upload nid files", util.AsError(err).Message)

	after, err := f.profiles.GetMe(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, before.Profile.Identity, after.Profile.Identity)
	assert.True(t, f.files.Has(nidURL))
	assert.Equal(t, 1, f.files.Count())
	require.Len(t, f.files.Deleted(), 1)
	assert.NotEqual(t, nidURL, f.files.Deleted()[0])
}

// interleavedProfiles runs between right after each of the first n reads,
// standing in for a request that writes the same profile concurrently.
type interleavedProfiles struct {
	store.ProfileStore
	n       int
	between func()
}

func (s *interleavedProfiles) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.ProfileStore.FindByUser(ctx, userID)
	if s.n > 0 {
		s.n--
		s.between()
	}
	return profile, err
}

func (f *fixture) profilesOver(profiles store.ProfileStore) ProfileService {
	return NewProfileService(profiles, f.db.Applications(), f.db.Cooldowns(), f.files, storage.NewDeferred(f.files, storage.Inline{}), f.events, models.DefaultRequiredArtifacts, Clock(f.clock.Now))
}

func TestConcurrentIdentityUploadsKeepBothDocs(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	var frontURL string
	racing := f.profilesOver(&interleavedProfiles{
		ProfileStore: f.db.Profiles(),
		n:            1,
		between: func() {
			view, err := f.profiles.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "1990123456789"}, []storage.Upload{*pdfUpload("nidFrontDoc")})
			require.NoError(t, err)
			frontURL = view.Profile.Identity.DocFiles[0].URL
		},
	})

	view, err := racing.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "1990123456789"}, []storage.Upload{*pdfUpload("nidBackDoc")})
	require.NoError(t, err)

	docs := view.Profile.Identity.DocFiles
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.True(t, f.files.Has(d.URL))
	}
	assert.Contains(t, []string{docs[0].URL, docs[1].URL}, frontURL)
	assert.Equal(t, 2, f.files.Count())
	assert.Empty(t, f.files.Deleted())
}

func TestProfileWriteGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	racing := f.profilesOver(&interleavedProfiles{
		ProfileStore: f.db.Profiles(),
		n:            common.PROFILE_WRITE_ATTEMPTS,
		between: func() {
			_, err := f.profiles.UpsertEmergencyContact(ctx, p, models.EmergencyContactRequest{Name: "Karim Uddin", Phone: "+8801812345678"})
			require.NoError(t, err)
		},
	})

	_, err := racing.UploadCV(ctx, p, *pdfUpload("cvFile"))
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindBusiness))
	assert.Equal(t, 0, f.files.Count())
	assert.Len(t, f.files.Deleted(), 1)

	me, err := f.profiles.GetMe(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, me.Profile.CvFile)
	assert.NotNil(t, me.Profile.EmergencyContact)
}

func TestIdentityRejectsMixedTypesInOneRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.profiles.UpsertIdentity(context.Background(), applicantPrincipal(), models.IdentityRequest{Number: "1990123456789"},
		[]storage.Upload{*pdfUpload("nidFrontDoc"), *pdfUpload("passportBackDoc")})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindBusiness))
	assert.Equal(t, 0, f.files.Count())
}

func TestIdentityReuploadReplacesSameSide(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	first, err := f.profiles.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "1990123456789"},
		[]storage.Upload{*pdfUpload("nidFrontDoc"), *pdfUpload("nidBackDoc")})
	require.NoError(t, err)
	require.Len(t, first.Profile.Identity.DocFiles, 2)

	var oldFront string
	for _, d := range first.Profile.Identity.DocFiles {
		if d.Side == models.DocSideFront {
			oldFront = d.URL
		}
	}

	second, err := f.profiles.UpsertIdentity(ctx, p, models.IdentityRequest{Number: "1990123456789"}, []storage.Upload{*pdfUpload("nidFrontDoc")})
	require.NoError(t, err)
	assert.Len(t, second.Profile.Identity.DocFiles, 2)
	assert.False(t, f.files.Has(oldFront))
	assert.Equal(t, 2, f.files.Count())
}

func TestEducationRequiresSscCertificate(t *testing.T) {
	f := newFixture(t)

	_, err := f.profiles.UploadEducation(context.Background(), applicantPrincipal(), nil, pdfUpload("lastCertFile"))
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))
	assert.Equal(t, 0, f.files.Count())
}

func TestEducationKeepsExistingFiles(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	first, err := f.profiles.UploadEducation(ctx, p, pdfUpload("sscCertFile"), pdfUpload("lastCertFile"))
	require.NoError(t, err)

	second, err := f.profiles.UploadEducation(ctx, p, nil, pdfUpload("lastCertFile"))
	require.NoError(t, err)
	assert.Equal(t, first.Profile.EducationFiles.SscCertFile, second.Profile.EducationFiles.SscCertFile)
	assert.NotEqual(t, first.Profile.EducationFiles.LastCertFile, second.Profile.EducationFiles.LastCertFile)
	assert.False(t, f.files.Has(first.Profile.EducationFiles.LastCertFile.URL))
}

func TestPageUploadsNeedAtLeastOnePage(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	_, err := f.profiles.UploadNDA(ctx, p, nil, nil)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))

	view, err := f.profiles.UploadAgreement(ctx, p, nil, pdfUpload("secondPageFile"))
	require.NoError(t, err)
	assert.Nil(t, view.Profile.AgreementFiles.FirstPageFile)
	assert.True(t, view.Profile.AgreementFiles.SecondPageFile.Present())
}

func TestDeleteMeRemovesEveryFile(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()
	f.completeProfile(t, p)
	require.Equal(t, 3, f.files.Count())

	require.NoError(t, f.profiles.DeleteMe(ctx, p))
	assert.Equal(t, 0, f.files.Count())
	assert.Contains(t, f.events.Types(), events.ProfileDeleted)

	view, err := f.profiles.GetMe(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, view.Profile)

	err = f.profiles.DeleteMe(ctx, p)
	assert.True(t, util.IsKind(err, util.KindNotFound))
}

func TestNeedAdditionalInfoFollowsApplicationStatus(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()
	app := f.submitted(t, p)

	view, err := f.profiles.GetMe(ctx, p)
	require.NoError(t, err)
	assert.False(t, view.NeedAdditionalInfo)
	assert.False(t, view.CanApply)
	assert.True(t, view.Eligibility.InCooldown)

	_, err = f.applications.Review(ctx, adminPrincipal(), app.Id, models.ReviewRequest{Status: models.ApplicationStatusApproved})
	require.NoError(t, err)

	view, err = f.profiles.GetMe(ctx, p)
	require.NoError(t, err)
	assert.True(t, view.NeedAdditionalInfo)
	assert.Equal(t, models.ApplicationStatusApproved, view.Application.Status)
}
