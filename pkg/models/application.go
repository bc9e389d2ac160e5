package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Application struct {
	Id                primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ApplicationNumber string              `bson:"application_number" json:"applicationNumber"`
	UserId            primitive.ObjectID  `bson:"user_id" json:"userId"`
	ProfileId         primitive.ObjectID  `bson:"profile_id" json:"profileId"`
	Status            ApplicationStatus   `bson:"status" json:"status"`
	SubmittedAt       time.Time           `bson:"submitted_at" json:"submittedAt"`
	ReviewedAt        *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	ReviewedBy        *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	AdminNotes        string              `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	RejectionReason   string              `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
}

// ApplicationCooldown is the per-user claim serialising submissions.
type ApplicationCooldown struct {
	UserId          primitive.ObjectID `bson:"user_id" json:"userId"`
	LastSubmittedAt time.Time          `bson:"last_submitted_at" json:"lastSubmittedAt"`
}

// ReviewDecision is the state change applied by an admin review.
type ReviewDecision struct {
	Status          ApplicationStatus
	ReviewedBy      primitive.ObjectID
	ReviewedAt      time.Time
	AdminNotes      string
	RejectionReason string
}

// Apply sets the review fields on a, keeping the rejection reason only for
// rejections and leaving existing notes alone when none are given.
func (d ReviewDecision) Apply(a *Application) {
	reviewedAt := d.ReviewedAt
	reviewedBy := d.ReviewedBy
	a.Status = d.Status
	a.ReviewedAt = &reviewedAt
	a.ReviewedBy = &reviewedBy
	if d.Status == ApplicationStatusRejected {
		a.RejectionReason = d.RejectionReason
	} else {
		a.RejectionReason = ""
	}
	if d.AdminNotes != "" {
		a.AdminNotes = d.AdminNotes
	}
}

// ApplicationView is an application joined with its owner's profile.
type ApplicationView struct {
	Application `bson:",inline"`
	Profile     ProfileSummary `bson:"profile" json:"profile"`
}

// RecentApplication is a row of the dashboard's recent list.
type RecentApplication struct {
	Id                primitive.ObjectID `bson:"_id" json:"_id"`
	ApplicationNumber string             `bson:"application_number" json:"applicationNumber"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Phone             string             `bson:"phone" json:"phone"`
	ProfileImage      string             `bson:"profile_image" json:"profileImage"`
	SubmittedDate     time.Time          `bson:"submitted_date" json:"submittedDate"`
	Status            ApplicationStatus  `bson:"status" json:"status"`
	AdminNotes        string             `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	RejectionReason   string             `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
}

// ApplicationFilter narrows an admin search.
type ApplicationFilter struct {
	Query  string
	Status ApplicationStatus
	Range  TimeRange
}

type ApplicationPage struct {
	Applications []ApplicationView `json:"applications"`
	Pagination
}

// StatusCounts holds the number of applications per status and a total.
type StatusCounts map[ApplicationStatus]int64

func (c StatusCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// MarshalView returns counts keyed by status name, every status present,
// plus a total.
func (c StatusCounts) MarshalView() map[string]int64 {
	out := make(map[string]int64, len(ApplicationStatuses)+1)
	for _, s := range ApplicationStatuses {
		out[string(s)] = c[s]
	}
	out["total"] = c.Total()
	return out
}
