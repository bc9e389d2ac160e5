package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"
)

type dashboardService struct {
	apps store.ApplicationStore
}

func NewDashboardService(apps store.ApplicationStore) DashboardService {
	return &dashboardService{apps: apps}
}

// Stats counts applications per status. Every status is present.
func (s *dashboardService) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, util.Internal(err, "count applications")
	}
	return counts.MarshalView(), nil
}

func (s *dashboardService) Recent(ctx context.Context) ([]models.RecentApplication, error) {
	recent, err := s.apps.Recent(ctx, common.RECENT_APPLICATIONS_LIMIT)
	if err != nil {
		return nil, util.Internal(err, "recent applications")
	}
	return recent, nil
}

// parseBound reads an RFC3339 timestamp or a YYYY-MM-DD date. A date used
// as an upper bound covers the whole day.
func parseBound(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t, nil
}

// Search lists applications matching req, newest first, one page at a time.
func (s *dashboardService) Search(ctx context.Context, req models.ApplicationSearchRequest) (*models.ApplicationPage, error) {
	filter := models.ApplicationFilter{Query: strings.TrimSpace(req.Query)}
	var fieldErrs []util.FieldError

	if req.Status != "" {
		status, err := models.ParseApplicationStatus(req.Status)
		if err != nil {
			fieldErrs = append(fieldErrs, util.FieldError{Path: "status", Message: "status must be one of [submitted under-review approved rejected]"})
		}
		filter.Status = status
	}

	from, err := parseBound(req.From, false)
	if err != nil {
		fieldErrs = append(fieldErrs, util.FieldError{Path: "from", Message: "from must be an RFC3339 time or a YYYY-MM-DD date"})
	}
	to, err := parseBound(req.To, true)
	if err != nil {
		fieldErrs = append(fieldErrs, util.FieldError{Path: "to", Message: "to must be an RFC3339 time or a YYYY-MM-DD date"})
	}
	if req.Page > common.MAX_PAGE {
		fieldErrs = append(fieldErrs, util.FieldError{Path: "page", Message: fmt.Sprintf("page must be %d or less", common.MAX_PAGE)})
	}
	if from != nil && to != nil && to.Before(*from) {
		fieldErrs = append(fieldErrs, util.FieldError{Path: "to", Message: "to must not be before from"})
	}
	if len(fieldErrs) > 0 {
		return nil, util.Invalid(fieldErrs)
	}
	filter.Range = models.TimeRange{From: from, To: to}

	page := util.PaginationArgs{Page: req.Page, Limit: req.Limit}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = common.DEFAULT_PAGE_LIMIT
	}
	if page.Limit > common.MAX_PAGE_LIMIT {
		page.Limit = common.MAX_PAGE_LIMIT
	}

	views, total, err := s.apps.Search(ctx, filter, page)
	if err != nil {
		return nil, util.Internal(err, "search applications")
	}
	return &models.ApplicationPage{
		Applications: views,
		Pagination:   models.NewPagination(page.Page, page.Limit, total),
	}, nil
}
