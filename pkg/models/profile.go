package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the applicant's multi-section record. Every section is optional
// until the applicant fills it in.
type Profile struct {
	Id               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserId           primitive.ObjectID `bson:"user_id" json:"userId"`
	Basic            *BasicInfo         `bson:"basic,omitempty" json:"basic,omitempty"`
	Identity         *Identity          `bson:"identity,omitempty" json:"identity,omitempty"`
	EmergencyContact *EmergencyContact  `bson:"emergency_contact,omitempty" json:"emergencyContact,omitempty"`
	Address          *Address           `bson:"address,omitempty" json:"address,omitempty"`
	Other            *OtherInfo         `bson:"other,omitempty" json:"other,omitempty"`
	CvFile           *FileRef           `bson:"cv_file,omitempty" json:"cvFile,omitempty"`
	WorkInfo         *WorkInfo          `bson:"work_info,omitempty" json:"workInfo,omitempty"`
	EducationFiles   *EducationFiles    `bson:"education_files,omitempty" json:"educationFiles,omitempty"`
	TestimonialFile  *FileRef           `bson:"testimonial_file,omitempty" json:"testimonialFile,omitempty"`
	MyVerifiedFile   *FileRef           `bson:"my_verified_file,omitempty" json:"myVerifiedFile,omitempty"`
	CommitmentFile   *FileRef           `bson:"commitment_file,omitempty" json:"commitmentFile,omitempty"`
	NdaFiles         *PageFiles         `bson:"nda_files,omitempty" json:"ndaFiles,omitempty"`
	AgreementFiles   *PageFiles         `bson:"agreement_files,omitempty" json:"agreementFiles,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	ModifiedAt       time.Time          `bson:"modified_at" json:"modifiedAt"`
	Version          int64              `bson:"version" json:"-"`
}

type BasicInfo struct {
	FullName       string     `bson:"full_name" json:"fullName"`
	Phone          string     `bson:"phone" json:"phone"`
	Email          string     `bson:"email,omitempty" json:"email,omitempty"`
	DateOfBirth    *time.Time `bson:"date_of_birth,omitempty" json:"dateOfBirth,omitempty"`
	EducationLevel string     `bson:"education_level" json:"educationLevel"`
	Gender         Gender     `bson:"gender" json:"gender"`
	ProfilePicFile *FileRef   `bson:"profile_pic_file,omitempty" json:"profilePicFile,omitempty"`
}

type Identity struct {
	Number   string        `bson:"number" json:"number"`
	DocFiles []IdentityDoc `bson:"doc_files" json:"docFiles"`
}

type IdentityDoc struct {
	Type DocType `bson:"type" json:"type"`
	Side DocSide `bson:"side,omitempty" json:"side,omitempty"`
	Name string  `bson:"name" json:"name"`
	URL  string  `bson:"url" json:"url"`
}

type EmergencyContact struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"`
}

type AddressLine struct {
	District string `bson:"district" json:"district"`
	Upazila  string `bson:"upazila" json:"upazila"`
	Street   string `bson:"street" json:"street"`
}

func (a *AddressLine) Complete() bool {
	return a != nil && a.District != "" && a.Upazila != "" && a.Street != ""
}

type Address struct {
	Present   *AddressLine `bson:"present,omitempty" json:"present,omitempty"`
	Permanent *AddressLine `bson:"permanent,omitempty" json:"permanent,omitempty"`
}

type OtherInfo struct {
	FathersName   string `bson:"fathers_name" json:"fathersName"`
	MothersName   string `bson:"mothers_name" json:"mothersName"`
	Religion      string `bson:"religion,omitempty" json:"religion,omitempty"`
	MaritalStatus string `bson:"marital_status,omitempty" json:"maritalStatus,omitempty"`
}

type WorkInfo struct {
	EmployeeId string `bson:"employee_id" json:"employeeId"`
	Project    string `bson:"project" json:"project"`
	Branch     string `bson:"branch" json:"branch"`
	Shift      string `bson:"shift" json:"shift"`
	Reference  string `bson:"reference,omitempty" json:"reference,omitempty"`
}

func (w *WorkInfo) Complete() bool {
	return w != nil && w.EmployeeId != "" && w.Project != "" && w.Branch != "" && w.Shift != ""
}

type EducationFiles struct {
	SscCertFile  *FileRef `bson:"ssc_cert_file,omitempty" json:"sscCertFile,omitempty"`
	LastCertFile *FileRef `bson:"last_cert_file,omitempty" json:"lastCertFile,omitempty"`
}

func (e *EducationFiles) Complete() bool {
	return e != nil && e.SscCertFile.Present() && e.LastCertFile.Present()
}

// DocTypeMismatchError is returned when uploaded identity documents do not
// share the type already on file.
type DocTypeMismatchError struct {
	Allowed DocType
}

func (e *DocTypeMismatchError) Error() string {
	return fmt.Sprintf("You can only upload %s files", e.Allowed)
}

// CurrentDocType returns the type of the documents on file, if any.
func (i *Identity) CurrentDocType() DocType {
	if i == nil {
		return ""
	}
	for _, d := range i.DocFiles {
		if d.Type != "" {
			return d.Type
		}
	}
	return ""
}

// MergeDocs folds incoming documents into the identity's document list.
// Documents with the same type and side are replaced and returned so their
// stored files can be removed. Incoming documents must share one type, and
// that type must match the one already on file.
func (i *Identity) MergeDocs(incoming []IdentityDoc) (merged []IdentityDoc, replaced []IdentityDoc, err error) {
	var existing []IdentityDoc
	if i != nil {
		existing = i.DocFiles
	}
	if len(incoming) == 0 {
		return append([]IdentityDoc{}, existing...), nil, nil
	}

	allowed := i.CurrentDocType()
	if allowed == "" {
		allowed = incoming[0].Type
	}
	for _, d := range incoming {
		if d.Type != allowed {
			return nil, nil, &DocTypeMismatchError{Allowed: allowed}
		}
	}

	merged = make([]IdentityDoc, 0, len(existing)+len(incoming))
	for _, old := range existing {
		superseded := false
		for _, d := range incoming {
			if d.Type == old.Type && d.Side == old.Side {
				superseded = true
				break
			}
		}
		if superseded {
			replaced = append(replaced, old)
			continue
		}
		merged = append(merged, old)
	}
	merged = append(merged, incoming...)
	return merged, replaced, nil
}

// FileURLs returns the URL of every file the profile references.
func (p *Profile) FileURLs() []string {
	if p == nil {
		return nil
	}
	var urls []string
	add := func(f *FileRef) {
		if f.Present() {
			urls = append(urls, f.URL)
		}
	}
	addPages := func(pf *PageFiles) {
		if pf != nil {
			add(pf.FirstPageFile)
			add(pf.SecondPageFile)
		}
	}

	if p.Basic != nil {
		add(p.Basic.ProfilePicFile)
	}
	if p.Identity != nil {
		for _, d := range p.Identity.DocFiles {
			if d.URL != "" {
				urls = append(urls, d.URL)
			}
		}
	}
	add(p.CvFile)
	if p.EducationFiles != nil {
		add(p.EducationFiles.SscCertFile)
		add(p.EducationFiles.LastCertFile)
	}
	add(p.TestimonialFile)
	add(p.MyVerifiedFile)
	add(p.CommitmentFile)
	addPages(p.NdaFiles)
	addPages(p.AgreementFiles)
	return urls
}

// ProfileSummary is the subset of a profile shown next to an application.
type ProfileSummary struct {
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	Phone        string `bson:"phone" json:"phone"`
	ProfileImage string `bson:"profile_image" json:"profileImage"`
}

func (p *Profile) Summary() ProfileSummary {
	if p == nil || p.Basic == nil {
		return ProfileSummary{}
	}
	s := ProfileSummary{
		Name:  p.Basic.FullName,
		Email: p.Basic.Email,
		Phone: p.Basic.Phone,
	}
	if p.Basic.ProfilePicFile.Present() {
		s.ProfileImage = p.Basic.ProfilePicFile.URL
	}
	return s
}
