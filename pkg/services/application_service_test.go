package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMyStatusBeforeApplying(t *testing.T) {
	f := newFixture(t)

	status, err := f.applications.MyStatus(context.Background(), applicantPrincipal())
	require.NoError(t, err)
	assert.False(t, status.HasApplied)
	assert.Nil(t, status.Application)
}

func TestSubmitCreatesSubmittedApplication(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()

	app := f.submitted(t, p)
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	assert.Equal(t, f.clock.Now(), app.SubmittedAt)
	assert.True(t, strings.HasPrefix(app.ApplicationNumber, "APP"))
	assert.Equal(t, p.ID, app.UserId)
	assert.Contains(t, f.events.Types(), events.ApplicationSubmitted)

	status, err := f.applications.MyStatus(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, status.HasApplied)
	assert.Equal(t, app.Id, status.Application.Id)
}

func TestSubmitRequiresCompleteProfile(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	_, err := f.applications.Submit(ctx, p)
	require.Error(t, err)
	assert.Equal(t, "Please complete your profile before applying", util.AsError(err).Message)

	_, err = f.profiles.UpsertOther(ctx, p, models.OtherInfoRequest{FathersName: "A", MothersName: "B"})
	require.NoError(t, err)
	_, err = f.applications.Submit(ctx, p)
	require.Error(t, err)
	appErr := util.AsError(err)
	assert.Equal(t, util.KindBusiness, appErr.Kind)
	assert.NotEmpty(t, appErr.Details)
	assert.Equal(t, 0, f.db.ApplicationCount())
}

func TestSubmitRejectsUnderageApplicant(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	f.completeProfile(t, p)

	req := basicRequest()
	req.DateOfBirth = f.clock.Now().AddDate(-17, 0, 0).Format(time.DateOnly)
	_, err := f.profiles.UpsertBasic(context.Background(), p, req, nil)
	require.NoError(t, err)

	_, err = f.applications.Submit(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, "Please complete your profile before applying", util.AsError(err).Message)
}

func TestSubmitEnforcesCooldown(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()
	f.submitted(t, p)

	_, err := f.applications.Submit(ctx, p)
	require.Error(t, err)
	appErr := util.AsError(err)
	assert.Equal(t, "You can apply again after 24 hours", appErr.Message)
	assert.Equal(t, map[string]int{"hoursRemaining": 24}, appErr.Details)

	f.clock.Advance(23*time.Hour + 30*time.Minute)
	_, err = f.applications.Submit(ctx, p)
	require.Error(t, err)
	assert.Equal(t, "You can apply again after 1 hours", util.AsError(err).Message)
	assert.Equal(t, 1, f.db.ApplicationCount())

	f.clock.Advance(30 * time.Minute)
	second, err := f.applications.Submit(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 2, f.db.ApplicationCount())

	status, err := f.applications.MyStatus(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, second.Id, status.Application.Id)
}

func TestConcurrentSubmitsCreateOneApplication(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	f.completeProfile(t, p)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.applications.Submit(context.Background(), p); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.db.ApplicationCount())
}

func TestCancelReleasesCooldown(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()
	f.submitted(t, p)

	require.NoError(t, f.applications.Cancel(ctx, p))
	assert.Equal(t, 0, f.db.ApplicationCount())
	assert.False(t, f.db.HasCooldown(p.ID))
	assert.Contains(t, f.events.Types(), events.ApplicationCancelled)

	_, err := f.applications.Submit(ctx, p)
	require.NoError(t, err)
}

func TestMyApplicationsKeepsHistory(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	apps, err := f.applications.MyApplications(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, apps)

	first := f.submitted(t, p)
	_, err = f.applications.Review(ctx, adminPrincipal(), first.Id, models.ReviewRequest{Status: models.ApplicationStatusRejected})
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	second, err := f.applications.Submit(ctx, p)
	require.NoError(t, err)

	apps, err = f.applications.MyApplications(ctx, p)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second.Id, apps[0].Id)
	assert.Equal(t, first.Id, apps[1].Id)
	assert.Equal(t, models.ApplicationStatusRejected, apps[1].Status)

	got, err := f.applications.MyApplication(ctx, p, first.ApplicationNumber)
	require.NoError(t, err)
	assert.Equal(t, first.Id, got.Id)

	_, err = f.applications.MyApplication(ctx, applicantPrincipal(), first.ApplicationNumber)
	assert.True(t, util.IsKind(err, util.KindNotFound))
}

func TestCancelOnlyWhileSubmitted(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	err := f.applications.Cancel(ctx, p)
	assert.True(t, util.IsKind(err, util.KindNotFound))

	app := f.submitted(t, p)
	_, err = f.applications.StartReview(ctx, adminPrincipal(), app.Id)
	require.NoError(t, err)

	err = f.applications.Cancel(ctx, p)
	require.Error(t, err)
	assert.Equal(t, "Only submitted applications can be cancelled", util.AsError(err).Message)
	assert.Equal(t, 1, f.db.ApplicationCount())
}

func TestStartReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submitted(t, applicantPrincipal())

	updated, err := f.applications.StartReview(ctx, adminPrincipal(), app.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusUnderReview, updated.Status)
	assert.Contains(t, f.events.Types(), events.ApplicationInReview)

	_, err = f.applications.StartReview(ctx, adminPrincipal(), app.Id)
	assert.Equal(t, "Application is already under review", util.AsError(err).Message)

	_, err = f.applications.StartReview(ctx, adminPrincipal(), primitive.NewObjectID())
	assert.True(t, util.IsKind(err, util.KindNotFound))
}

func TestReviewApproves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := adminPrincipal()
	app := f.submitted(t, applicantPrincipal())
	f.clock.Advance(time.Hour)

	reviewed, err := f.applications.Review(ctx, admin, app.Id, models.ReviewRequest{
		Status:          models.ApplicationStatusApproved,
		AdminNotes:      "strong profile",
		RejectionReason: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, f.clock.Now(), *reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin.ID, *reviewed.ReviewedBy)
	assert.Equal(t, "strong profile", reviewed.AdminNotes)
	assert.Empty(t, reviewed.RejectionReason)

	texts := f.sent.SentTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, "01712345678", texts[0].To)
	assert.Contains(t, texts[0].Body, "approved")
	assert.Contains(t, texts[0].Body, app.ApplicationNumber)

	emails := f.sent.SentEmails()
	require.Len(t, emails, 1)
	assert.Equal(t, "rahim@example.com", emails[0].To)

	_, err = f.applications.Review(ctx, admin, app.Id, models.ReviewRequest{Status: models.ApplicationStatusRejected})
	require.Error(t, err)
	assert.Equal(t, "Application already reviewed", util.AsError(err).Message)
	assert.Len(t, f.sent.SentTexts(), 1)
}

func TestReviewRejectsUnderReviewApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submitted(t, applicantPrincipal())
	_, err := f.applications.StartReview(ctx, adminPrincipal(), app.Id)
	require.NoError(t, err)

	reviewed, err := f.applications.Review(ctx, adminPrincipal(), app.Id, models.ReviewRequest{
		Status:          models.ApplicationStatusRejected,
		RejectionReason: "missing experience",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, reviewed.Status)
	assert.Equal(t, "missing experience", reviewed.RejectionReason)
	assert.Contains(t, f.sent.SentTexts()[0].Body, "rejected")
	assert.Contains(t, f.sent.SentEmails()[0].Body, "missing experience")
}

func TestReviewValidatesDecision(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t, applicantPrincipal())

	_, err := f.applications.Review(context.Background(), adminPrincipal(), app.Id, models.ReviewRequest{Status: models.ApplicationStatusUnderReview})
	assert.True(t, util.IsKind(err, util.KindValidation))

	_, err = f.applications.Review(context.Background(), adminPrincipal(), primitive.NewObjectID(), models.ReviewRequest{Status: models.ApplicationStatusApproved})
	assert.True(t, util.IsKind(err, util.KindNotFound))
}

func TestReviewSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t, applicantPrincipal())
	f.sent.Err = errors.New("gateway down")

	reviewed, err := f.applications.Review(context.Background(), adminPrincipal(), app.Id, models.ReviewRequest{Status: models.ApplicationStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, reviewed.Status)
	assert.Empty(t, f.sent.SentTexts())
	assert.Contains(t, f.events.Types(), events.ApplicationReviewed)
}

func TestRequireAdditionalInfoStage(t *testing.T) {
	f := newFixture(t)
	p := applicantPrincipal()
	ctx := context.Background()

	err := f.applications.RequireAdditionalInfoStage(ctx, p)
	assert.True(t, util.IsKind(err, util.KindBusiness))

	app := f.submitted(t, p)
	err = f.applications.RequireAdditionalInfoStage(ctx, p)
	assert.True(t, util.IsKind(err, util.KindBusiness))

	_, err = f.applications.StartReview(ctx, adminPrincipal(), app.Id)
	require.NoError(t, err)
	assert.NoError(t, f.applications.RequireAdditionalInfoStage(ctx, p))
}

func TestGetJoinsProfileSummary(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t, applicantPrincipal())

	view, err := f.applications.Get(context.Background(), app.Id)
	require.NoError(t, err)
	assert.Equal(t, app.ApplicationNumber, view.ApplicationNumber)
	assert.Equal(t, "Rahim Uddin", view.Profile.Name)
	assert.Equal(t, "01712345678", view.Profile.Phone)
	assert.NotEmpty(t, view.Profile.ProfileImage)

	_, err = f.applications.Get(context.Background(), primitive.NewObjectID())
	assert.True(t, util.IsKind(err, util.KindNotFound))
}
