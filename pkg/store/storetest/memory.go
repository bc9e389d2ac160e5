// Package storetest provides in-memory stores for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds every collection in memory. The stores it hands out share it.
type DB struct {
	mu        sync.Mutex
	profiles  map[primitive.ObjectID]*models.Profile
	apps      map[primitive.ObjectID]models.Application
	cooldowns map[primitive.ObjectID]time.Time
	users     map[string]*models.User
	admin     *models.Admin
	otps      map[string]otpEntry
	now       func() time.Time
}

type otpEntry struct {
	code    string
	expires time.Time
}

func New() *DB {
	return &DB{
		profiles:  map[primitive.ObjectID]*models.Profile{},
		apps:      map[primitive.ObjectID]models.Application{},
		cooldowns: map[primitive.ObjectID]time.Time{},
		users:     map[string]*models.User{},
		otps:      map[string]otpEntry{},
		now:       time.Now,
	}
}

// SetClock controls the time used for OTP expiry.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *DB) Profiles() store.ProfileStore         { return profileStore{db} }
func (db *DB) Applications() store.ApplicationStore { return applicationStore{db} }
func (db *DB) Cooldowns() store.CooldownStore       { return cooldownStore{db} }
func (db *DB) Users() store.UserStore               { return userStore{db} }
func (db *DB) Admins() store.AdminStore             { return adminStore{db} }
func (db *DB) OTPs() store.OTPStore                 { return otpStore{db} }

// Transactor runs fn directly; the in-memory stores have no rollback.
func (db *DB) Transactor() store.Transactor { return transactor{} }

// PutProfile stores p as is.
func (db *DB) PutProfile(p models.Profile) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.Id.IsZero() {
		p.Id = primitive.NewObjectID()
	}
	db.profiles[p.UserId] = &p
}

// PutApplication stores app as is.
func (db *DB) PutApplication(app models.Application) models.Application {
	db.mu.Lock()
	defer db.mu.Unlock()
	if app.Id.IsZero() {
		app.Id = primitive.NewObjectID()
	}
	db.apps[app.Id] = app
	return app
}

// SetCooldown records at as the user's last submission.
func (db *DB) SetCooldown(userID primitive.ObjectID, at time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cooldowns[userID] = at
}

func (db *DB) ApplicationCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.apps)
}

func (db *DB) HasCooldown(userID primitive.ObjectID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.cooldowns[userID]
	return ok
}

func (db *DB) Admin() *models.Admin {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.admin == nil {
		return nil
	}
	a := *db.admin
	return &a
}

type transactor struct{}

func (transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type profileStore struct{ db *DB }

func (s profileStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpsertSections round-trips through BSON so section values are applied
// exactly as the Mongo store would apply them.
func (s profileStore) UpsertSections(_ context.Context, userID primitive.ObjectID, version int64, sections store.Sections, now time.Time) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	current, ok := s.db.profiles[userID]
	if !ok {
		current = &models.Profile{Id: primitive.NewObjectID(), UserId: userID, CreatedAt: now}
	}
	if current.Version != version {
		return nil, store.ErrConflict
	}
	raw, err := bson.Marshal(current)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for key, value := range sections {
		doc[key] = value
	}
	doc["modified_at"] = now
	doc["version"] = version + 1

	raw, err = bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var updated models.Profile
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return nil, err
	}
	s.db.profiles[userID] = &updated
	cp := updated
	return &cp, nil
}

func (s profileStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.db.profiles, userID)
	return p, nil
}

type applicationStore struct{ db *DB }

func (s applicationStore) Insert(_ context.Context, app models.Application) (*models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if app.Id.IsZero() {
		app.Id = primitive.NewObjectID()
	}
	for _, existing := range s.db.apps {
		if existing.ApplicationNumber == app.ApplicationNumber {
			return nil, store.ErrDuplicate
		}
	}
	s.db.apps[app.Id] = app
	return &app, nil
}

func (s applicationStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	app, ok := s.db.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &app, nil
}

func (s applicationStore) LatestByUser(_ context.Context, userID primitive.ObjectID) (*models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	apps := s.db.sorted(func(a models.Application) bool { return a.UserId == userID })
	if len(apps) == 0 {
		return nil, store.ErrNotFound
	}
	return &apps[0], nil
}

func (s applicationStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	apps := s.db.sorted(func(a models.Application) bool { return a.UserId == userID })
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (s applicationStore) FindByNumber(_ context.Context, userID primitive.ObjectID, number string) (*models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, app := range s.db.apps {
		if app.UserId == userID && app.ApplicationNumber == number {
			return &app, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s applicationStore) ApplyReview(_ context.Context, id primitive.ObjectID, from []models.ApplicationStatus, d models.ReviewDecision) (*models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	app, ok := s.db.apps[id]
	if !ok || !containsStatus(from, app.Status) {
		return nil, store.ErrNotFound
	}
	d.Apply(&app)
	s.db.apps[id] = app
	return &app, nil
}

func (s applicationStore) SetStatus(_ context.Context, id primitive.ObjectID, from, to models.ApplicationStatus) (*models.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	app, ok := s.db.apps[id]
	if !ok || app.Status != from {
		return nil, store.ErrNotFound
	}
	app.Status = to
	s.db.apps[id] = app
	return &app, nil
}

func (s applicationStore) DeleteIfStatus(_ context.Context, id primitive.ObjectID, status models.ApplicationStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	app, ok := s.db.apps[id]
	if !ok || app.Status != status {
		return store.ErrNotFound
	}
	delete(s.db.apps, id)
	return nil
}

func (s applicationStore) GetView(_ context.Context, id primitive.ObjectID) (*models.ApplicationView, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	app, ok := s.db.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	view := s.db.view(app)
	return &view, nil
}

func (s applicationStore) CountByStatus(_ context.Context) (models.StatusCounts, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	counts := models.StatusCounts{}
	for _, st := range models.ApplicationStatuses {
		counts[st] = 0
	}
	for _, app := range s.db.apps {
		counts[app.Status]++
	}
	return counts, nil
}

func (s applicationStore) Recent(_ context.Context, limit int) ([]models.RecentApplication, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	apps := s.db.sorted(nil)
	if len(apps) > limit {
		apps = apps[:limit]
	}
	recent := make([]models.RecentApplication, 0, len(apps))
	for _, app := range apps {
		summary := s.db.view(app).Profile
		recent = append(recent, models.RecentApplication{
			Id:                app.Id,
			ApplicationNumber: app.ApplicationNumber,
			Name:              summary.Name,
			Email:             summary.Email,
			Phone:             summary.Phone,
			ProfileImage:      summary.ProfileImage,
			SubmittedDate:     app.SubmittedAt,
			Status:            app.Status,
			AdminNotes:        app.AdminNotes,
			RejectionReason:   app.RejectionReason,
		})
	}
	return recent, nil
}

func (s applicationStore) Search(_ context.Context, filter models.ApplicationFilter, page util.PaginationArgs) ([]models.ApplicationView, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	query := strings.ToLower(filter.Query)
	var matched []models.ApplicationView
	for _, app := range s.db.sorted(nil) {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.Range.From != nil && app.SubmittedAt.Before(*filter.Range.From) {
			continue
		}
		if filter.Range.To != nil && app.SubmittedAt.After(*filter.Range.To) {
			continue
		}
		view := s.db.view(app)
		if query != "" &&
			!strings.Contains(strings.ToLower(view.Profile.Name), query) &&
			!strings.Contains(strings.ToLower(view.Profile.Email), query) &&
			!strings.Contains(strings.ToLower(view.Profile.Phone), query) {
			continue
		}
		matched = append(matched, view)
	}

	total := int64(len(matched))
	start := int(page.Skip())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.ApplicationView{}, matched[start:end]...), total, nil
}

func (db *DB) sorted(keep func(models.Application) bool) []models.Application {
	var apps []models.Application
	for _, app := range db.apps {
		if keep == nil || keep(app) {
			apps = append(apps, app)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].SubmittedAt.Equal(apps[j].SubmittedAt) {
			return apps[i].SubmittedAt.After(apps[j].SubmittedAt)
		}
		return apps[i].Id.Hex() > apps[j].Id.Hex()
	})
	return apps
}

func (db *DB) view(app models.Application) models.ApplicationView {
	return models.ApplicationView{Application: app, Profile: db.profiles[app.UserId].Summary()}
}

func containsStatus(list []models.ApplicationStatus, s models.ApplicationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type cooldownStore struct{ db *DB }

func (s cooldownStore) Claim(_ context.Context, userID primitive.ObjectID, now time.Time, period time.Duration) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	last, ok := s.db.cooldowns[userID]
	if ok && last.After(now.Add(-period)) {
		return false, nil
	}
	s.db.cooldowns[userID] = now
	return true, nil
}

func (s cooldownStore) LastSubmitted(_ context.Context, userID primitive.ObjectID) (time.Time, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	last, ok := s.db.cooldowns[userID]
	if !ok {
		return time.Time{}, store.ErrNotFound
	}
	return last, nil
}

func (s cooldownStore) Release(_ context.Context, userID primitive.ObjectID, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if last, ok := s.db.cooldowns[userID]; ok && last.Equal(at) {
		delete(s.db.cooldowns, userID)
	}
	return nil
}

type userStore struct{ db *DB }

func (s userStore) UpsertByPhone(_ context.Context, phone string, now time.Time) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[phone]
	if !ok {
		user = &models.User{Id: primitive.NewObjectID(), Phone: phone, CreatedAt: now}
		s.db.users[phone] = user
	}
	user.IsVerified = true
	user.LastLogin = now
	user.ModifiedAt = now
	cp := *user
	return &cp, nil
}

func (s userStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, user := range s.db.users {
		if user.Id == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

type adminStore struct{ db *DB }

func (s adminStore) Create(_ context.Context, admin models.Admin) (*models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.admin != nil {
		return nil, store.ErrDuplicate
	}
	if admin.Id.IsZero() {
		admin.Id = primitive.NewObjectID()
	}
	admin.Singleton = true
	s.db.admin = &admin
	cp := admin
	return &cp, nil
}

func (s adminStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Admin, error) {
	return s.find(func(a *models.Admin) bool { return a.Id == id })
}

func (s adminStore) FindByEmail(_ context.Context, email string) (*models.Admin, error) {
	return s.find(func(a *models.Admin) bool { return a.Email == email })
}

func (s adminStore) find(match func(*models.Admin) bool) (*models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.admin == nil || !match(s.db.admin) {
		return nil, store.ErrNotFound
	}
	cp := *s.db.admin
	return &cp, nil
}

func (s adminStore) VerifyEmail(_ context.Context, token string, now time.Time) (*models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a := s.db.admin
	if a == nil || token == "" || a.VerifyToken != token || a.VerifyTokenExpiry == nil || !a.VerifyTokenExpiry.After(now) {
		return nil, store.ErrNotFound
	}
	a.EmailVerified = true
	a.VerifyToken = ""
	a.VerifyTokenExpiry = nil
	a.ModifiedAt = now
	cp := *a
	return &cp, nil
}

func (s adminStore) SetResetToken(_ context.Context, id primitive.ObjectID, token string, expiry time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.admin == nil || s.db.admin.Id != id {
		return store.ErrNotFound
	}
	s.db.admin.ResetToken = token
	s.db.admin.ResetTokenExpiry = &expiry
	return nil
}

func (s adminStore) ResetPassword(_ context.Context, email, token, passwordHash string, now time.Time) (*models.Admin, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a := s.db.admin
	if a == nil || a.Email != email || token == "" || a.ResetToken != token || a.ResetTokenExpiry == nil || !a.ResetTokenExpiry.After(now) {
		return nil, store.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.ResetToken = ""
	a.ResetTokenExpiry = nil
	a.ModifiedAt = now
	cp := *a
	return &cp, nil
}

func (s adminStore) TouchLogin(_ context.Context, id primitive.ObjectID, now time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.admin != nil && s.db.admin.Id == id {
		s.db.admin.LastLogin = &now
	}
	return nil
}

type otpStore struct{ db *DB }

func (s otpStore) Save(_ context.Context, phone, code string, ttl time.Duration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.otps[phone] = otpEntry{code: code, expires: s.db.now().Add(ttl)}
	return nil
}

func (s otpStore) Get(_ context.Context, phone string) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entry, ok := s.db.otps[phone]
	if !ok || !s.db.now().Before(entry.expires) {
		return "", store.ErrNotFound
	}
	return entry.code, nil
}

func (s otpStore) Delete(_ context.Context, phone string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.otps, phone)
	return nil
}
