package models

import (
	"fmt"
)

type ApplicationStatus string

const (
	ApplicationStatusSubmitted   ApplicationStatus = "submitted"
	ApplicationStatusUnderReview ApplicationStatus = "under-review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every defined status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusUnderReview,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
}

func ParseApplicationStatus(status string) (ApplicationStatus, error) {
	switch status {
	case "submitted":
		return ApplicationStatusSubmitted, nil
	case "under-review":
		return ApplicationStatusUnderReview, nil
	case "approved":
		return ApplicationStatusApproved, nil
	case "rejected":
		return ApplicationStatusRejected, nil
	default:
		return "", fmt.Errorf("invalid application status: %s", status)
	}
}

// IsTerminal reports whether the status can no longer be reviewed.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// IsDecision reports whether s is a valid review outcome.
func (s ApplicationStatus) IsDecision() bool {
	return s.IsTerminal()
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case ApplicationStatusSubmitted:
		return next == ApplicationStatusUnderReview || next.IsDecision()
	case ApplicationStatusUnderReview:
		return next.IsDecision()
	default:
		return false
	}
}

// ReviewableStatuses are the states a review decision may be applied from.
var ReviewableStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusUnderReview,
}

type Gender string

const (
	Male        Gender = "male"
	Female      Gender = "female"
	Undisclosed Gender = "undisclosed"
)

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleAdmin     Role = "admin"
)

type DocType string

const (
	DocTypeNID      DocType = "nid"
	DocTypePassport DocType = "passport"
	DocTypeBirthReg DocType = "birth-reg"
)

type DocSide string

const (
	DocSideNone  DocSide = ""
	DocSideFront DocSide = "front"
	DocSideBack  DocSide = "back"
)

// IdentityUploadFields maps multipart field names to the document they carry.
var IdentityUploadFields = map[string]struct {
	Type DocType
	Side DocSide
}{
	"nidFrontDoc":      {DocTypeNID, DocSideFront},
	"nidBackDoc":       {DocTypeNID, DocSideBack},
	"passportFrontDoc": {DocTypePassport, DocSideFront},
	"passportBackDoc":  {DocTypePassport, DocSideBack},
	"birthRegDoc":      {DocTypeBirthReg, DocSideNone},
}

// Artifact names a post-approval section of the profile.
type Artifact string

const (
	ArtifactWorkInfo        Artifact = "workInfo"
	ArtifactEducationFiles  Artifact = "educationFiles"
	ArtifactTestimonialFile Artifact = "testimonialFile"
	ArtifactNdaFiles        Artifact = "ndaFiles"
	ArtifactAgreementFiles  Artifact = "agreementFiles"
	ArtifactCommitmentFile  Artifact = "commitmentFile"
	ArtifactMyVerifiedFile  Artifact = "myVerifiedFile"
)

var DefaultRequiredArtifacts = []Artifact{
	ArtifactWorkInfo,
	ArtifactEducationFiles,
	ArtifactTestimonialFile,
	ArtifactNdaFiles,
	ArtifactAgreementFiles,
	ArtifactCommitmentFile,
	ArtifactMyVerifiedFile,
}

func ParseArtifact(name string) (Artifact, error) {
	for _, a := range DefaultRequiredArtifacts {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown artifact: %s", name)
}
