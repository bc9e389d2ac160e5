package routers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/container"
	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/internal/middleware"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/notify"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/store/storetest"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	pngBytes    = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	pdfBytes    = append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("0"), 64)...)
	otpPattern  = regexp.MustCompile(`code is (\d{6})`)
	linkPattern = regexp.MustCompile(`href="([^"]+)"`)
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type testServer struct {
	router *gin.Engine
	db     *storetest.DB
	files  *storage.Memory
	sent   *notify.Recorder
	events *events.Recorder
	clock  *clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clk := &clock{t: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
	db := storetest.New()
	db.SetClock(clk.Now)
	files := storage.NewMemory()
	sent := &notify.Recorder{}
	recorder := &events.Recorder{}
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	sc := container.NewServiceContainer(container.Dependencies{
		Profiles:     db.Profiles(),
		Applications: db.Applications(),
		Cooldowns:    db.Cooldowns(),
		Users:        db.Users(),
		Admins:       db.Admins(),
		OTPs:         db.OTPs(),
		Tx:           db.Transactor(),
		Files:        files,
		Queue:        storage.Inline{},
		Publisher:    recorder,
		Blacklist:    auth.NewMemoryBlacklist(),
		Mailer:       sent,
		SMS:          sent,
		Numbers:      node,
		Now:          services.Clock(clk.Now),
	}, container.Settings{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
		AdminTokenTTL:  time.Hour,
		AppBaseURL:     "https://app.example.com",
		Required:       models.DefaultRequiredArtifacts,
		BcryptCost:     bcrypt.MinCost,
	})

	return &testServer{
		router: InitRoute(sc, nil),
		db:     db,
		files:  files,
		sent:   sent,
		events: recorder,
		clock:  clk,
	}
}

func (s *testServer) serve(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) json(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/v1"+path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(t, req, token)
}

type part struct {
	field, filename string
	data            []byte
}

func (s *testServer) multipart(t *testing.T, path, token string, fields map[string]string, parts ...part) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1"+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.serve(t, req, token)
}

// signIn runs the OTP flow for phone and returns the access token.
func (s *testServer) signIn(t *testing.T, phone string) string {
	t.Helper()
	code, _ := s.json(t, http.MethodPost, "/auth/send-otp", "", map[string]string{"phoneNumber": phone})
	require.Equal(t, http.StatusOK, code)

	texts := s.sent.SentTexts()
	require.NotEmpty(t, texts)
	m := otpPattern.FindStringSubmatch(texts[len(texts)-1].Body)
	require.Len(t, m, 2)

	code, env := s.json(t, http.MethodPost, "/auth/verify-otp", "", map[string]string{"phoneNumber": phone, "otp": m[1]})
	require.Equal(t, http.StatusOK, code, env.Message)

	var result struct {
		Token models.AuthToken `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token.Token)
	return result.Token.Token
}

func (s *testServer) lastLink(t *testing.T) *url.URL {
	t.Helper()
	emails := s.sent.SentEmails()
	require.NotEmpty(t, emails)
	m := linkPattern.FindStringSubmatch(emails[len(emails)-1].Body)
	require.Len(t, m, 2)
	u, err := url.Parse(m[1])
	require.NoError(t, err)
	return u
}

// adminToken registers, verifies and signs in the administrator.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	code, _ := s.json(t, http.MethodPost, "/admin/register", "", map[string]string{
		"name": "Site Admin", "email": "admin@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.json(t, http.MethodPost, "/admin/verify-email", "", map[string]string{"token": s.lastLink(t).Query().Get("token")})
	require.Equal(t, http.StatusOK, code)

	code, env := s.json(t, http.MethodPost, "/admin/login", "", map[string]string{"email": "admin@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var result struct {
		Token models.AuthToken `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result.Token.Token
}

var basicFields = map[string]string{
	"fullName":       "Rahim Uddin",
	"phone":          "01712345678",
	"email":          "rahim@example.com",
	"dateOfBirth":    "1995-05-10",
	"educationLevel": "HSC",
	"gender":         "male",
}

// completeProfile fills every section required to apply.
func (s *testServer) completeProfile(t *testing.T, token string) {
	t.Helper()
	steps := []func() (int, envelope){
		func() (int, envelope) {
			return s.multipart(t, "/profile/basic-info", token, basicFields, part{"profilePic", "me.png", pngBytes})
		},
		func() (int, envelope) {
			return s.multipart(t, "/profile/identity-info", token, map[string]string{"number": "1990123456789"}, part{"nidFrontDoc", "nid.pdf", pdfBytes})
		},
		func() (int, envelope) {
			return s.json(t, http.MethodPost, "/profile/emergency-contact", token, map[string]string{"name": "Karim Uddin", "phone": "+8801812345678"})
		},
		func() (int, envelope) {
			line := map[string]string{"district": "Dhaka", "upazila": "Savar", "street": "12 Lake Road"}
			return s.json(t, http.MethodPost, "/profile/address-info", token, map[string]any{"present": line, "permanent": line})
		},
		func() (int, envelope) {
			return s.json(t, http.MethodPost, "/profile/other-info", token, map[string]string{"fathersName": "Abdul Uddin", "mothersName": "Amina Begum"})
		},
		func() (int, envelope) {
			return s.multipart(t, "/profile/cv-upload", token, nil, part{"cvFile", "cv.pdf", pdfBytes})
		},
	}
	for i, step := range steps {
		code, env := step()
		require.Equal(t, http.StatusOK, code, "step %d: %s %s", i, env.Message, env.Errors)
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestFreshApplicantHasNotApplied(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")

	code, env := s.json(t, http.MethodGet, "/application/my-status", token, nil)
	require.Equal(t, http.StatusOK, code)
	status := decode[services.MyStatus](t, env.Data)
	assert.False(t, status.HasApplied)
	assert.Nil(t, status.Application)
}

func TestSubmitThenCooldown(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")
	s.completeProfile(t, token)

	code, env := s.json(t, http.MethodGet, "/profile/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[services.ProfileView](t, env.Data).CanApply)

	code, env = s.json(t, http.MethodPost, "/application/submit", token, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	app := decode[models.Application](t, env.Data)
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	assert.True(t, s.clock.Now().Equal(app.SubmittedAt))
	assert.Regexp(t, `^APP\d+$`, app.ApplicationNumber)

	code, env = s.json(t, http.MethodPost, "/application/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You can apply again after 24 hours", env.Message)

	// The first token has expired by now.
	s.clock.Advance(22*time.Hour + 30*time.Minute)
	token = s.signIn(t, "01712345678")
	code, env = s.json(t, http.MethodPost, "/application/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You can apply again after 2 hours", env.Message)

	code, env = s.json(t, http.MethodGet, "/application/my-status", token, nil)
	require.Equal(t, http.StatusOK, code)
	status := decode[services.MyStatus](t, env.Data)
	assert.True(t, status.HasApplied)
	assert.Equal(t, app.Id, status.Application.Id)
}

func TestApplicationHistory(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")
	s.completeProfile(t, token)
	_, env := s.json(t, http.MethodPost, "/application/submit", token, nil)
	app := decode[models.Application](t, env.Data)

	code, env := s.json(t, http.MethodGet, "/application/my-applications", token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	apps := decode[[]models.Application](t, env.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, app.ApplicationNumber, apps[0].ApplicationNumber)

	code, env = s.json(t, http.MethodGet, "/application/"+app.ApplicationNumber, token, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, app.Id, decode[models.Application](t, env.Data).Id)

	other := s.signIn(t, "01812345678")
	code, _ = s.json(t, http.MethodGet, "/application/"+app.ApplicationNumber, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitIncompleteProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")

	code, env := s.json(t, http.MethodPost, "/application/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, 0, s.db.ApplicationCount())
}

func TestAdminReviewFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")
	s.completeProfile(t, token)
	_, env := s.json(t, http.MethodPost, "/application/submit", token, nil)
	app := decode[models.Application](t, env.Data)
	admin := s.adminToken(t)

	code, env := s.json(t, http.MethodGet, "/admin/applications/"+app.Id.Hex(), admin, nil)
	require.Equal(t, http.StatusOK, code)
	view := decode[models.ApplicationView](t, env.Data)
	assert.Equal(t, "Rahim Uddin", view.Profile.Name)

	textsBefore := len(s.sent.SentTexts())
	code, env = s.json(t, http.MethodPut, "/admin/applications/"+app.Id.Hex(), admin, map[string]string{"status": "approved", "adminNotes": "Welcome aboard"})
	require.Equal(t, http.StatusOK, code, env.Message)
	reviewed := decode[models.Application](t, env.Data)
	assert.Equal(t, models.ApplicationStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Len(t, s.sent.SentTexts(), textsBefore+1)

	code, env = s.json(t, http.MethodPut, "/admin/applications/"+app.Id.Hex(), admin, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Application already reviewed", env.Message)

	code, env = s.json(t, http.MethodGet, "/admin/dashboard/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[string]int64](t, env.Data)
	assert.Equal(t, int64(1), stats["approved"])
	assert.Equal(t, int64(1), stats["total"])

	code, env = s.json(t, http.MethodGet, "/admin/dashboard/recent", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.RecentApplication](t, env.Data), 1)
}

func TestApplicationSearchQuery(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")
	s.completeProfile(t, token)
	s.json(t, http.MethodPost, "/application/submit", token, nil)
	admin := s.adminToken(t)

	code, env := s.json(t, http.MethodGet, "/admin/applications?q=rahim&status=submitted&limit=5", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	page := decode[models.ApplicationPage](t, env.Data)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 5, page.Limit)

	code, env = s.json(t, http.MethodGet, "/admin/applications?status=pending", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, env.Errors)

	code, env = s.json(t, http.MethodGet, "/admin/applications?page=46116860184273879", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Errors), "page")
}

func TestIdentityTypeMismatch(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")

	code, env := s.multipart(t, "/profile/identity-info", token, map[string]string{"number": "1990123456789"}, part{"nidFrontDoc", "nid.pdf", pdfBytes})
	require.Equal(t, http.StatusOK, code, env.Message)
	nid := decode[services.ProfileView](t, env.Data).Profile.Identity.DocFiles
	require.Len(t, nid, 1)

	code, env = s.multipart(t, "/profile/identity-info", token, map[string]string{"number": "1990123456789"}, part{"passportFrontDoc", "passport.pdf", pdfBytes})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You can only upload nid files", env.Message)

	assert.True(t, s.files.Has(nid[0].URL))
	deleted := s.files.Deleted()
	require.Len(t, deleted, 1)
	assert.NotEqual(t, nid[0].URL, deleted[0])
}

func TestApprovalGate(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")
	work := map[string]string{"employeeId": "E-100", "project": "Support", "branch": "Dhaka", "shift": "Day"}

	code, env := s.json(t, http.MethodPost, "/profile/work-info", token, work)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Additional information can only be submitted after your application is accepted for review", env.Message)

	s.completeProfile(t, token)
	_, env = s.json(t, http.MethodPost, "/application/submit", token, nil)
	app := decode[models.Application](t, env.Data)
	admin := s.adminToken(t)

	code, _ = s.json(t, http.MethodPut, "/admin/applications/"+app.Id.Hex()+"/start-review", admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.json(t, http.MethodPost, "/profile/work-info", token, work)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = s.multipart(t, "/profile/testimonial-upload", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.multipart(t, "/profile/nda-upload", token, nil, part{"firstPageFile", "nda-1.pdf", pdfBytes}, part{"secondPageFile", "nda-2.pdf", pdfBytes})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.NotNil(t, decode[services.ProfileView](t, env.Data).Profile.NdaFiles)
}

func TestGuards(t *testing.T) {
	s := newTestServer(t)
	applicant := s.signIn(t, "01712345678")
	admin := s.adminToken(t)

	code, _ := s.json(t, http.MethodGet, "/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.json(t, http.MethodGet, "/profile/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.json(t, http.MethodGet, "/admin/dashboard/stats", applicant, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.json(t, http.MethodGet, "/profile/me", admin, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.json(t, http.MethodGet, "/admin/applications/not-an-id", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")

	code, _ := s.json(t, http.MethodDelete, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := s.json(t, http.MethodGet, "/profile/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token has been revoked, please sign in again", env.Message)
}

func TestValidationErrorsUseJSONPaths(t *testing.T) {
	s := newTestServer(t)

	code, env := s.json(t, http.MethodPost, "/auth/verify-otp", "", map[string]string{"phoneNumber": "12345", "otp": "12"})
	assert.Equal(t, http.StatusBadRequest, code)

	var details []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Errors, &details))
	paths := make([]string, 0, len(details))
	for _, d := range details {
		paths = append(paths, d.Path)
	}
	assert.ElementsMatch(t, []string{"phoneNumber", "otp"}, paths)
}

func TestDeleteMe(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, "01712345678")
	s.completeProfile(t, token)
	require.Equal(t, 3, s.files.Count())

	code, _ := s.json(t, http.MethodDelete, "/profile/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, s.files.Count())

	messages := s.events.Messages()
	require.NotEmpty(t, messages)
	assert.Equal(t, events.ProfileDeleted, messages[len(messages)-1].Type)

	code, env := s.json(t, http.MethodGet, "/profile/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, decode[services.ProfileView](t, env.Data).Profile)
}
