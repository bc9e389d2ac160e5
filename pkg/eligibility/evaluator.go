// Package eligibility decides whether an applicant may submit an application
// and whether an approved applicant still owes post-approval documents.
// Everything here is a pure function of a profile snapshot and a clock.
package eligibility

import (
	"math"
	"time"

	"applicant-api-io/api/pkg/models"
)

const (
	CooldownPeriod = 24 * time.Hour
	MinimumAge     = 18
)

// Section names reported in Result.Missing.
const (
	SectionBasic            = "basic"
	SectionIdentity         = "identity"
	SectionEmergencyContact = "emergencyContact"
	SectionPresentAddress   = "presentAddress"
	SectionPermanentAddress = "permanentAddress"
	SectionOther            = "other"
	SectionCV               = "cv"
)

// Result separates profile completeness from the submission cooldown so
// callers can tell the two apart.
type Result struct {
	Complete      bool     `json:"complete"`
	Missing       []string `json:"missing,omitempty"`
	InCooldown    bool     `json:"inCooldown"`
	CooldownHours int      `json:"cooldownHours,omitempty"`
}

// CanApply is true when the profile is complete and no cooldown is active.
func (r Result) CanApply() bool {
	return r.Complete && !r.InCooldown
}

func BasicComplete(p *models.Profile, now time.Time) bool {
	if p == nil || p.Basic == nil {
		return false
	}
	b := p.Basic
	return b.FullName != "" &&
		b.Phone != "" &&
		b.EducationLevel != "" &&
		b.Gender != "" &&
		b.ProfilePicFile.Present() &&
		b.DateOfBirth != nil &&
		IsAdult(*b.DateOfBirth, now)
}

func IdentityComplete(p *models.Profile) bool {
	return p != nil && p.Identity != nil && p.Identity.Number != "" && len(p.Identity.DocFiles) > 0
}

func EmergencyContactComplete(p *models.Profile) bool {
	return p != nil && p.EmergencyContact != nil && p.EmergencyContact.Name != "" && p.EmergencyContact.Phone != ""
}

func PresentAddressComplete(p *models.Profile) bool {
	return p != nil && p.Address != nil && p.Address.Present.Complete()
}

func PermanentAddressComplete(p *models.Profile) bool {
	return p != nil && p.Address != nil && p.Address.Permanent.Complete()
}

func OtherComplete(p *models.Profile) bool {
	return p != nil && p.Other != nil && p.Other.FathersName != "" && p.Other.MothersName != ""
}

func CvPresent(p *models.Profile) bool {
	return p != nil && p.CvFile.Present()
}

// MissingSections lists the required sections that are not yet complete.
func MissingSections(p *models.Profile, now time.Time) []string {
	checks := []struct {
		name string
		ok   bool
	}{
		{SectionBasic, BasicComplete(p, now)},
		{SectionIdentity, IdentityComplete(p)},
		{SectionEmergencyContact, EmergencyContactComplete(p)},
		{SectionPresentAddress, PresentAddressComplete(p)},
		{SectionPermanentAddress, PermanentAddressComplete(p)},
		{SectionOther, OtherComplete(p)},
		{SectionCV, CvPresent(p)},
	}

	var missing []string
	for _, c := range checks {
		if !c.ok {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// Evaluate checks completeness and cooldown. A nil profile is never complete.
// lastSubmittedAt is the submission time of the user's latest application,
// or nil if they never applied.
func Evaluate(p *models.Profile, lastSubmittedAt *time.Time, now time.Time) Result {
	r := Result{Missing: MissingSections(p, now)}
	r.Complete = p != nil && len(r.Missing) == 0

	if lastSubmittedAt != nil {
		if hours := CooldownHours(*lastSubmittedAt, now); hours > 0 {
			r.InCooldown = true
			r.CooldownHours = hours
		}
	}
	return r
}

// CanApply reports whether the profile may be submitted now.
func CanApply(p *models.Profile, lastSubmittedAt *time.Time, now time.Time) bool {
	if p == nil {
		return false
	}
	return Evaluate(p, lastSubmittedAt, now).CanApply()
}

// CooldownHours returns the whole hours, rounded up, until a new submission
// is allowed. Zero means the cooldown has elapsed.
func CooldownHours(lastSubmittedAt, now time.Time) int {
	remaining := lastSubmittedAt.Add(CooldownPeriod).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours()))
}

// IsAdult reports whether someone born on dob is at least MinimumAge at now.
func IsAdult(dob, now time.Time) bool {
	return !dob.AddDate(MinimumAge, 0, 0).After(now)
}

// AdditionalInfoStatuses are the application states in which post-approval
// documents are collected.
var AdditionalInfoStatuses = []models.ApplicationStatus{
	models.ApplicationStatusUnderReview,
	models.ApplicationStatusApproved,
}

// CollectsAdditionalInfo reports whether status unlocks post-approval uploads.
func CollectsAdditionalInfo(status models.ApplicationStatus) bool {
	for _, s := range AdditionalInfoStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ArtifactPresent reports whether a post-approval artifact is on the profile.
func ArtifactPresent(p *models.Profile, a models.Artifact) bool {
	if p == nil {
		return false
	}
	switch a {
	case models.ArtifactWorkInfo:
		return p.WorkInfo.Complete()
	case models.ArtifactEducationFiles:
		return p.EducationFiles.Complete()
	case models.ArtifactTestimonialFile:
		return p.TestimonialFile.Present()
	case models.ArtifactNdaFiles:
		return p.NdaFiles.Complete()
	case models.ArtifactAgreementFiles:
		return p.AgreementFiles.Complete()
	case models.ArtifactCommitmentFile:
		return p.CommitmentFile.Present()
	case models.ArtifactMyVerifiedFile:
		return p.MyVerifiedFile.Present()
	default:
		return false
	}
}

// MissingArtifacts lists the required artifacts not yet on the profile.
func MissingArtifacts(p *models.Profile, required []models.Artifact) []models.Artifact {
	var missing []models.Artifact
	for _, a := range required {
		if !ArtifactPresent(p, a) {
			missing = append(missing, a)
		}
	}
	return missing
}

// NeedsAdditionalInfo is true when the application is under review or
// approved and any required artifact is still missing. It is false without
// a profile or an application.
func NeedsAdditionalInfo(p *models.Profile, app *models.Application, required []models.Artifact) bool {
	if p == nil || app == nil {
		return false
	}
	if !CollectsAdditionalInfo(app.Status) {
		return false
	}
	return len(MissingArtifacts(p, required)) > 0
}
