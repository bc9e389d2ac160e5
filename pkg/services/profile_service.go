package services

import (
	"context"
	"strings"
	"time"

	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/pkg/eligibility"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Storage folders per profile section.
const (
	folderBasics       = "profile/basics"
	folderIdentities   = "profile/identities"
	folderCVs          = "profile/cvs"
	folderEducations   = "profile/educations"
	folderTestimonials = "profile/testimonials"
	folderVerifies     = "profile/verifies"
	folderCommitments  = "profile/commitments"
	folderNDAs         = "profile/ndas"
	folderAgreements   = "profile/agreements"
)

func imageConstraints(folder string) storage.Constraints {
	return storage.Constraints{MaxSize: common.PROFILE_PIC_MAX_SIZE, Allowed: storage.ImageTypes, Folder: folder}
}

func identityConstraints() storage.Constraints {
	return storage.Constraints{MaxSize: common.IDENTITY_MAX_SIZE, Allowed: storage.DocumentTypes, Folder: folderIdentities}
}

func documentConstraints(folder string) storage.Constraints {
	return storage.Constraints{MaxSize: common.DOCUMENT_MAX_SIZE, Allowed: storage.DocumentTypes, Folder: folder}
}

type profileService struct {
	profiles  store.ProfileStore
	apps      store.ApplicationStore
	cooldowns store.CooldownStore
	files     storage.FileStorage
	cleanup   *storage.Deferred
	events    events.Publisher
	required  []models.Artifact
	now       Clock
}

func NewProfileService(
	profiles store.ProfileStore,
	apps store.ApplicationStore,
	cooldowns store.CooldownStore,
	files storage.FileStorage,
	cleanup *storage.Deferred,
	publisher events.Publisher,
	required []models.Artifact,
	now Clock,
) ProfileService {
	return &profileService{
		profiles:  profiles,
		apps:      apps,
		cooldowns: cooldowns,
		files:     files,
		cleanup:   cleanup,
		events:    publisher,
		required:  required,
		now:       now.orDefault(),
	}
}

// sectionsFunc builds the sections to write from the stored profile, which
// is nil before the first write, and lists the file URLs they replace.
type sectionsFunc func(current *models.Profile) (store.Sections, []string, error)

// write applies build to the user's profile. The write is conditional on
// the version build saw; on a conflict build runs again against the fresh
// profile. Files the batch stored are discarded if the write fails;
// replaced files are removed in the background once it succeeds.
func (s *profileService) write(ctx context.Context, p models.Principal, batch *storage.Batch, build sectionsFunc) (*ProfileView, error) {
	fail := func(err error) (*ProfileView, error) {
		if batch != nil {
			batch.Discard(context.WithoutCancel(ctx))
		}
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		current, err := s.current(ctx, p.ID)
		if err != nil {
			return fail(err)
		}

		sections, replaced, err := build(current)
		if err != nil {
			return fail(err)
		}

		var version int64
		if current != nil {
			version = current.Version
		}
		updated, err := s.profiles.UpsertSections(ctx, p.ID, version, sections, s.now().UTC())
		if errors.Is(err, store.ErrConflict) {
			if attempt < common.PROFILE_WRITE_ATTEMPTS {
				continue
			}
			util.LogWarning("profile write kept conflicting", zap.String("user", p.ID.Hex()))
			return fail(util.BadRequest("Your profile was changed by another request, please try again"))
		}
		if err != nil {
			return fail(util.Internal(err, "upsert profile"))
		}

		s.cleanup.DeleteLater(replaced...)
		return s.view(ctx, updated)
	}
}

func (s *profileService) current(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profiles.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.Internal(err, "find profile")
	}
	return profile, nil
}

// view attaches eligibility and the latest application to profile, which
// may be nil.
func (s *profileService) view(ctx context.Context, profile *models.Profile) (*ProfileView, error) {
	v := &ProfileView{Profile: profile}
	if profile == nil {
		return v, nil
	}

	app, err := s.apps.LatestByUser(ctx, profile.UserId)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, util.Internal(err, "find latest application")
	}
	v.Application = app

	var lastSubmitted *time.Time
	last, err := s.cooldowns.LastSubmitted(ctx, profile.UserId)
	switch {
	case err == nil:
		lastSubmitted = &last
	case !errors.Is(err, store.ErrNotFound):
		return nil, util.Internal(err, "find cooldown")
	}

	v.Eligibility = eligibility.Evaluate(profile, lastSubmitted, s.now())
	v.CanApply = v.Eligibility.CanApply()
	v.NeedAdditionalInfo = eligibility.NeedsAdditionalInfo(profile, app, s.required)
	return v, nil
}

func (s *profileService) GetMe(ctx context.Context, p models.Principal) (*ProfileView, error) {
	profile, err := s.current(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, profile)
}

// DeleteMe removes the profile and every file it references.
func (s *profileService) DeleteMe(ctx context.Context, p models.Principal) error {
	profile, err := s.profiles.DeleteByUser(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return util.NotFound("Profile not found")
	}
	if err != nil {
		return util.Internal(err, "delete profile")
	}

	urls := profile.FileURLs()
	s.cleanup.DeleteLater(urls...)
	s.events.Publish(ctx, events.ProfileDeleted, p.ID.Hex())
	util.LogInfo("profile deleted", zap.String("user", p.ID.Hex()), zap.Int("files", len(urls)))
	return nil
}

func (s *profileService) UpsertBasic(ctx context.Context, p models.Principal, req models.BasicInfoRequest, profilePic *storage.Upload) (*ProfileView, error) {
	dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
	if err != nil {
		return nil, util.Invalid([]util.FieldError{{Path: "dateOfBirth", Message: "dateOfBirth must be a date in YYYY-MM-DD format"}})
	}

	batch := storage.NewBatch(s.files)
	var pic *models.FileRef
	if profilePic != nil {
		ref, err := batch.Store(ctx, *profilePic, imageConstraints(folderBasics))
		if err != nil {
			return nil, err
		}
		pic = &ref
	}

	return s.write(ctx, p, batch, func(current *models.Profile) (store.Sections, []string, error) {
		basic := &models.BasicInfo{
			FullName:       strings.TrimSpace(req.FullName),
			Phone:          common.NormalizePhone(req.Phone),
			Email:          strings.ToLower(strings.TrimSpace(req.Email)),
			DateOfBirth:    &dob,
			EducationLevel: req.EducationLevel,
			Gender:         req.Gender,
		}

		var old *models.FileRef
		if current != nil && current.Basic != nil {
			old = current.Basic.ProfilePicFile
		}

		var replaced []string
		basic.ProfilePicFile = old
		if pic != nil {
			basic.ProfilePicFile = pic
			if old.Present() {
				replaced = append(replaced, old.URL)
			}
		}
		return store.Sections{store.SectionBasic: basic}, replaced, nil
	})
}

func (s *profileService) UpsertIdentity(ctx context.Context, p models.Principal, req models.IdentityRequest, docs []storage.Upload) (*ProfileView, error) {
	for _, d := range docs {
		if _, ok := models.IdentityUploadFields[d.Field]; !ok {
			return nil, util.BadRequest("Unknown identity document field " + d.Field)
		}
	}

	batch := storage.NewBatch(s.files)
	refs, err := batch.StoreAll(ctx, docs, identityConstraints())
	if err != nil {
		batch.Discard(context.WithoutCancel(ctx))
		return nil, err
	}

	incoming := make([]models.IdentityDoc, 0, len(docs))
	for _, d := range docs {
		kind := models.IdentityUploadFields[d.Field]
		ref := refs[d.Field]
		incoming = append(incoming, models.IdentityDoc{Type: kind.Type, Side: kind.Side, Name: ref.Name, URL: ref.URL})
	}

	return s.write(ctx, p, batch, func(current *models.Profile) (store.Sections, []string, error) {
		var existing *models.Identity
		if current != nil {
			existing = current.Identity
		}

		merged, replaced, err := existing.MergeDocs(incoming)
		if err != nil {
			var mismatch *models.DocTypeMismatchError
			if errors.As(err, &mismatch) {
				return nil, nil, util.BadRequest(mismatch.Error())
			}
			return nil, nil, err
		}

		var urls []string
		for _, d := range replaced {
			urls = append(urls, d.URL)
		}
		identity := &models.Identity{Number: strings.TrimSpace(req.Number), DocFiles: merged}
		return store.Sections{store.SectionIdentity: identity}, urls, nil
	})
}

func (s *profileService) UpsertEmergencyContact(ctx context.Context, p models.Principal, req models.EmergencyContactRequest) (*ProfileView, error) {
	return s.write(ctx, p, nil, func(*models.Profile) (store.Sections, []string, error) {
		contact := &models.EmergencyContact{Name: strings.TrimSpace(req.Name), Phone: strings.TrimSpace(req.Phone)}
		return store.Sections{store.SectionEmergencyContact: contact}, nil, nil
	})
}

func addressLine(r models.AddressLineRequest) *models.AddressLine {
	return &models.AddressLine{
		District: strings.TrimSpace(r.District),
		Upazila:  strings.TrimSpace(r.Upazila),
		Street:   strings.TrimSpace(r.Street),
	}
}

func (s *profileService) UpsertAddress(ctx context.Context, p models.Principal, req models.AddressRequest) (*ProfileView, error) {
	return s.write(ctx, p, nil, func(*models.Profile) (store.Sections, []string, error) {
		address := &models.Address{Present: addressLine(req.Present), Permanent: addressLine(req.Permanent)}
		return store.Sections{store.SectionAddress: address}, nil, nil
	})
}

func (s *profileService) UpsertOther(ctx context.Context, p models.Principal, req models.OtherInfoRequest) (*ProfileView, error) {
	return s.write(ctx, p, nil, func(*models.Profile) (store.Sections, []string, error) {
		other := &models.OtherInfo{
			FathersName:   strings.TrimSpace(req.FathersName),
			MothersName:   strings.TrimSpace(req.MothersName),
			Religion:      strings.TrimSpace(req.Religion),
			MaritalStatus: req.MaritalStatus,
		}
		return store.Sections{store.SectionOther: other}, nil, nil
	})
}

func (s *profileService) UpsertWorkInfo(ctx context.Context, p models.Principal, req models.WorkInfoRequest) (*ProfileView, error) {
	return s.write(ctx, p, nil, func(*models.Profile) (store.Sections, []string, error) {
		work := &models.WorkInfo{
			EmployeeId: strings.TrimSpace(req.EmployeeId),
			Project:    strings.TrimSpace(req.Project),
			Branch:     strings.TrimSpace(req.Branch),
			Shift:      strings.TrimSpace(req.Shift),
			Reference:  strings.TrimSpace(req.Reference),
		}
		return store.Sections{store.SectionWorkInfo: work}, nil, nil
	})
}

// uploadSingle replaces the file held in section with file.
func (s *profileService) uploadSingle(ctx context.Context, p models.Principal, file storage.Upload, section string, c storage.Constraints, get func(*models.Profile) *models.FileRef) (*ProfileView, error) {
	batch := storage.NewBatch(s.files)
	ref, err := batch.Store(ctx, file, c)
	if err != nil {
		return nil, err
	}

	return s.write(ctx, p, batch, func(current *models.Profile) (store.Sections, []string, error) {
		var replaced []string
		if current != nil {
			if old := get(current); old.Present() {
				replaced = append(replaced, old.URL)
			}
		}
		return store.Sections{section: &ref}, replaced, nil
	})
}

func (s *profileService) UploadCV(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error) {
	return s.uploadSingle(ctx, p, file, store.SectionCvFile, documentConstraints(folderCVs),
		func(pr *models.Profile) *models.FileRef { return pr.CvFile })
}

func (s *profileService) UploadTestimonial(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error) {
	return s.uploadSingle(ctx, p, file, store.SectionTestimonialFile, documentConstraints(folderTestimonials),
		func(pr *models.Profile) *models.FileRef { return pr.TestimonialFile })
}

func (s *profileService) UploadMyVerified(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error) {
	return s.uploadSingle(ctx, p, file, store.SectionMyVerifiedFile, documentConstraints(folderVerifies),
		func(pr *models.Profile) *models.FileRef { return pr.MyVerifiedFile })
}

func (s *profileService) UploadCommitment(ctx context.Context, p models.Principal, file storage.Upload) (*ProfileView, error) {
	return s.uploadSingle(ctx, p, file, store.SectionCommitmentFile, documentConstraints(folderCommitments),
		func(pr *models.Profile) *models.FileRef { return pr.CommitmentFile })
}

// storePair stores up to two uploads. A nil upload yields a nil reference.
func storePair(ctx context.Context, batch *storage.Batch, first, second *storage.Upload, c storage.Constraints) (*models.FileRef, *models.FileRef, error) {
	var uploads []storage.Upload
	if first != nil {
		uploads = append(uploads, *first)
	}
	if second != nil {
		uploads = append(uploads, *second)
	}

	refs, err := batch.StoreAll(ctx, uploads, c)
	if err != nil {
		batch.Discard(context.WithoutCancel(ctx))
		return nil, nil, err
	}

	var a, b *models.FileRef
	if first != nil {
		ref := refs[first.Field]
		a = &ref
	}
	if second != nil {
		ref := refs[second.Field]
		b = &ref
	}
	return a, b, nil
}

// pick returns the new reference when there is one, recording the old one
// as replaced, and otherwise keeps the old one.
func pick(fresh, old *models.FileRef, replaced *[]string) *models.FileRef {
	if fresh == nil {
		return old
	}
	if old.Present() {
		*replaced = append(*replaced, old.URL)
	}
	return fresh
}

func (s *profileService) UploadEducation(ctx context.Context, p models.Principal, sscCert, lastCert *storage.Upload) (*ProfileView, error) {
	batch := storage.NewBatch(s.files)
	ssc, last, err := storePair(ctx, batch, sscCert, lastCert, documentConstraints(folderEducations))
	if err != nil {
		return nil, err
	}

	return s.write(ctx, p, batch, func(current *models.Profile) (store.Sections, []string, error) {
		old := &models.EducationFiles{}
		if current != nil && current.EducationFiles != nil {
			old = current.EducationFiles
		}

		var replaced []string
		files := &models.EducationFiles{
			SscCertFile:  pick(ssc, old.SscCertFile, &replaced),
			LastCertFile: pick(last, old.LastCertFile, &replaced),
		}
		if !files.SscCertFile.Present() {
			return nil, nil, util.Invalid([]util.FieldError{{Path: "sscCertFile", Message: "SSC certificate is required"}})
		}
		return store.Sections{store.SectionEducationFiles: files}, replaced, nil
	})
}

func (s *profileService) uploadPages(ctx context.Context, p models.Principal, firstPage, secondPage *storage.Upload, section, folder string, get func(*models.Profile) *models.PageFiles) (*ProfileView, error) {
	batch := storage.NewBatch(s.files)
	first, second, err := storePair(ctx, batch, firstPage, secondPage, documentConstraints(folder))
	if err != nil {
		return nil, err
	}

	return s.write(ctx, p, batch, func(current *models.Profile) (store.Sections, []string, error) {
		old := &models.PageFiles{}
		if current != nil {
			if pf := get(current); pf != nil {
				old = pf
			}
		}

		var replaced []string
		pages := &models.PageFiles{
			FirstPageFile:  pick(first, old.FirstPageFile, &replaced),
			SecondPageFile: pick(second, old.SecondPageFile, &replaced),
		}
		if !pages.FirstPageFile.Present() && !pages.SecondPageFile.Present() {
			return nil, nil, util.Invalid([]util.FieldError{{Path: "firstPageFile", Message: "At least one page file is required"}})
		}
		return store.Sections{section: pages}, replaced, nil
	})
}

func (s *profileService) UploadNDA(ctx context.Context, p models.Principal, firstPage, secondPage *storage.Upload) (*ProfileView, error) {
	return s.uploadPages(ctx, p, firstPage, secondPage, store.SectionNdaFiles, folderNDAs,
		func(pr *models.Profile) *models.PageFiles { return pr.NdaFiles })
}

func (s *profileService) UploadAgreement(ctx context.Context, p models.Principal, firstPage, secondPage *storage.Upload) (*ProfileView, error) {
	return s.uploadPages(ctx, p, firstPage, secondPage, store.SectionAgreementFiles, folderAgreements,
		func(pr *models.Profile) *models.PageFiles { return pr.AgreementFiles })
}
