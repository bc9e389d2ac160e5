package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileRef is a stored file as referenced from a profile.
type FileRef struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
}

// Present reports whether f points at a stored object.
func (f *FileRef) Present() bool {
	return f != nil && f.URL != ""
}

type PageFiles struct {
	FirstPageFile  *FileRef `bson:"first_page_file,omitempty" json:"firstPageFile,omitempty"`
	SecondPageFile *FileRef `bson:"second_page_file,omitempty" json:"secondPageFile,omitempty"`
}

func (p *PageFiles) Complete() bool {
	return p != nil && p.FirstPageFile.Present() && p.SecondPageFile.Present()
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID    primitive.ObjectID `json:"id"`
	Role  Role               `json:"role"`
	Phone string             `json:"phoneNumber,omitempty"`
	Email string             `json:"email,omitempty"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Next       *int  `json:"next"`
	Prev       *int  `json:"prev"`
}

// NewPagination computes page links for a 1-indexed page.
func NewPagination(page, limit int, total int64) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	if page < p.TotalPages {
		next := page + 1
		p.Next = &next
	}
	if page > 1 {
		prev := page - 1
		if prev > p.TotalPages && p.TotalPages > 0 {
			prev = p.TotalPages
		}
		p.Prev = &prev
	}
	return p
}

type TimeRange struct {
	From *time.Time
	To   *time.Time
}
