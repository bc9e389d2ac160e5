package services

import (
	"context"
	"fmt"
	"time"

	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/pkg/eligibility"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/notify"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errCooldownActive = errors.New("cooldown active")

type applicationService struct {
	profiles  store.ProfileStore
	apps      store.ApplicationStore
	cooldowns store.CooldownStore
	tx        store.Transactor
	numbers   *snowflake.Node
	events    events.Publisher
	notifier  Notifier
	now       Clock
}

func NewApplicationService(
	profiles store.ProfileStore,
	apps store.ApplicationStore,
	cooldowns store.CooldownStore,
	tx store.Transactor,
	numbers *snowflake.Node,
	publisher events.Publisher,
	notifier Notifier,
	now Clock,
) ApplicationService {
	return &applicationService{
		profiles:  profiles,
		apps:      apps,
		cooldowns: cooldowns,
		tx:        tx,
		numbers:   numbers,
		events:    publisher,
		notifier:  notifier,
		now:       now.orDefault(),
	}
}

// stamp returns now at the precision MongoDB stores, so stored times
// compare equal to the values they were written from.
func (s *applicationService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *applicationService) applicationNumber() string {
	return "APP" + s.numbers.Generate().String()
}

// Submit files a new application for a complete profile. A per-user claim
// written in the same transaction as the application enforces the
// cooldown, so concurrent submissions cannot both succeed.
func (s *applicationService) Submit(ctx context.Context, p models.Principal) (*models.Application, error) {
	profile, err := s.profiles.FindByUser(ctx, p.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, util.Internal(err, "find profile")
	}

	now := s.stamp()
	if missing := eligibility.MissingSections(profile, now); profile == nil || len(missing) > 0 {
		return nil, util.BadRequestWith("Please complete your profile before applying", missing)
	}

	var app *models.Application
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		claimed, err := s.cooldowns.Claim(ctx, p.ID, now, eligibility.CooldownPeriod)
		if err != nil {
			return err
		}
		if !claimed {
			return errCooldownActive
		}

		app, err = s.apps.Insert(ctx, models.Application{
			ApplicationNumber: s.applicationNumber(),
			UserId:            p.ID,
			ProfileId:         profile.Id,
			Status:            models.ApplicationStatusSubmitted,
			SubmittedAt:       now,
		})
		return err
	})
	if errors.Is(err, errCooldownActive) {
		return nil, s.cooldownError(ctx, p.ID, now)
	}
	if err != nil {
		return nil, util.Internal(err, "submit application")
	}

	s.events.Publish(ctx, events.ApplicationSubmitted, app.Id.Hex())
	util.LogInfo("application submitted", zap.String("user", p.ID.Hex()), zap.String("application", app.ApplicationNumber))
	return app, nil
}

func (s *applicationService) cooldownError(ctx context.Context, userID primitive.ObjectID, now time.Time) error {
	hours := int(eligibility.CooldownPeriod / time.Hour)
	last, err := s.cooldowns.LastSubmitted(ctx, userID)
	if err != nil {
		util.LogError("read cooldown", err, zap.String("user", userID.Hex()))
	} else if h := eligibility.CooldownHours(last, now); h > 0 {
		hours = h
	} else {
		hours = 1
	}
	return util.BadRequestWith(
		fmt.Sprintf("You can apply again after %d hours", hours),
		map[string]int{"hoursRemaining": hours},
	)
}

func (s *applicationService) latest(ctx context.Context, userID primitive.ObjectID) (*models.Application, error) {
	app, err := s.apps.LatestByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.Internal(err, "find latest application")
	}
	return app, nil
}

func (s *applicationService) MyStatus(ctx context.Context, p models.Principal) (*MyStatus, error) {
	app, err := s.latest(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &MyStatus{HasApplied: app != nil, Application: app}, nil
}

// MyApplications lists the caller's applications, reviewed ones included,
// newest first.
func (s *applicationService) MyApplications(ctx context.Context, p models.Principal) ([]models.Application, error) {
	apps, err := s.apps.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, util.Internal(err, "list applications")
	}
	return apps, nil
}

func (s *applicationService) MyApplication(ctx context.Context, p models.Principal, number string) (*models.Application, error) {
	app, err := s.apps.FindByNumber(ctx, p.ID, number)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.NotFound("Application not found")
	}
	if err != nil {
		return nil, util.Internal(err, "find application")
	}
	return app, nil
}

// Cancel withdraws the latest application while it is still submitted and
// lifts the cooldown it started.
func (s *applicationService) Cancel(ctx context.Context, p models.Principal) error {
	app, err := s.latest(ctx, p.ID)
	if err != nil {
		return err
	}
	if app == nil {
		return util.NotFound("Application not found")
	}
	if app.Status != models.ApplicationStatusSubmitted {
		return util.BadRequest("Only submitted applications can be cancelled")
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.apps.DeleteIfStatus(ctx, app.Id, models.ApplicationStatusSubmitted); err != nil {
			return err
		}
		return s.cooldowns.Release(ctx, p.ID, app.SubmittedAt)
	})
	if errors.Is(err, store.ErrNotFound) {
		return util.BadRequest("Only submitted applications can be cancelled")
	}
	if err != nil {
		return util.Internal(err, "cancel application")
	}

	s.events.Publish(ctx, events.ApplicationCancelled, app.Id.Hex())
	return nil
}

func (s *applicationService) RequireAdditionalInfoStage(ctx context.Context, p models.Principal) error {
	app, err := s.latest(ctx, p.ID)
	if err != nil {
		return err
	}
	if app == nil || !eligibility.CollectsAdditionalInfo(app.Status) {
		return util.BadRequest("Additional information can only be submitted after your application is accepted for review")
	}
	return nil
}

func (s *applicationService) find(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.NotFound("Application not found")
	}
	if err != nil {
		return nil, util.Internal(err, "find application")
	}
	return app, nil
}

// StartReview moves a submitted application under review.
func (s *applicationService) StartReview(ctx context.Context, admin models.Principal, id primitive.ObjectID) (*models.Application, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationStatusUnderReview {
		return nil, util.BadRequest("Application is already under review")
	}
	if !app.Status.CanTransitionTo(models.ApplicationStatusUnderReview) {
		return nil, util.BadRequest("Application already reviewed")
	}

	updated, err := s.apps.SetStatus(ctx, id, models.ApplicationStatusSubmitted, models.ApplicationStatusUnderReview)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.BadRequest("Application already reviewed")
	}
	if err != nil {
		return nil, util.Internal(err, "start review")
	}

	s.events.Publish(ctx, events.ApplicationInReview, id.Hex())
	util.LogInfo("application under review", zap.String("application", id.Hex()), zap.String("admin", admin.ID.Hex()))
	return updated, nil
}

// Review records the admin's decision and notifies the applicant. The
// notification is queued; its failure does not undo the decision.
func (s *applicationService) Review(ctx context.Context, admin models.Principal, id primitive.ObjectID, req models.ReviewRequest) (*models.Application, error) {
	if !req.Status.IsDecision() {
		return nil, util.Invalid([]util.FieldError{{Path: "status", Message: "status must be one of [approved rejected]"}})
	}

	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status.IsTerminal() {
		return nil, util.BadRequest("Application already reviewed")
	}

	decision := models.ReviewDecision{
		Status:          req.Status,
		ReviewedBy:      admin.ID,
		ReviewedAt:      s.stamp(),
		AdminNotes:      req.AdminNotes,
		RejectionReason: req.RejectionReason,
	}
	updated, err := s.apps.ApplyReview(ctx, id, models.ReviewableStatuses, decision)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.BadRequest("Application already reviewed")
	}
	if err != nil {
		return nil, util.Internal(err, "review application")
	}

	s.notifyDecision(ctx, updated)
	s.events.Publish(ctx, events.ApplicationReviewed, id.Hex())
	util.LogInfo("application reviewed",
		zap.String("application", id.Hex()),
		zap.String("status", string(updated.Status)),
		zap.String("admin", admin.ID.Hex()),
	)
	return updated, nil
}

func (s *applicationService) notifyDecision(ctx context.Context, app *models.Application) {
	profile, err := s.profiles.FindByUser(ctx, app.UserId)
	if err != nil || profile.Basic == nil {
		util.LogWarning("no contact details for review notification", zap.String("application", app.Id.Hex()))
		return
	}

	basic := profile.Basic
	if !s.notifier.SMS(basic.Phone, notify.ReviewSMS(basic.FullName, app.ApplicationNumber, app.Status)) {
		util.LogWarning("review sms not queued", zap.String("application", app.Id.Hex()))
	}
	if basic.Email != "" {
		subject, body := notify.ReviewEmail(basic.FullName, app.ApplicationNumber, app.Status, app.RejectionReason)
		s.notifier.Email(basic.Email, subject, body)
	}
}

func (s *applicationService) Get(ctx context.Context, id primitive.ObjectID) (*models.ApplicationView, error) {
	view, err := s.apps.GetView(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.NotFound("Application not found")
	}
	if err != nil {
		return nil, util.Internal(err, "get application")
	}
	return view, nil
}
