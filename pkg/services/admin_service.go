package services

import (
	"context"
	"net/url"
	"strings"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/notify"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type adminService struct {
	admins     store.AdminStore
	tokens     *auth.Tokens
	notifier   Notifier
	baseURL    string
	bcryptCost int
	now        Clock
}

func NewAdminService(admins store.AdminStore, tokens *auth.Tokens, notifier Notifier, baseURL string, bcryptCost int, now Clock) AdminService {
	if bcryptCost == 0 {
		bcryptCost = common.BCRYPT_COST
	}
	return &adminService{
		admins:     admins,
		tokens:     tokens,
		notifier:   notifier,
		baseURL:    strings.TrimRight(baseURL, "/"),
		bcryptCost: bcryptCost,
		now:        now.orDefault(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *adminService) link(path string, query url.Values) string {
	return s.baseURL + path + "?" + query.Encode()
}

// Register creates the single admin account and sends it a verification
// link.
func (s *adminService) Register(ctx context.Context, req models.AdminRegisterRequest) (*models.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, util.Internal(err, "hash password")
	}
	token, err := auth.GenerateSecureToken(common.SECURE_TOKEN_BYTES)
	if err != nil {
		return nil, util.Internal(err, "generate verify token")
	}

	now := s.now().UTC()
	expiry := now.Add(common.ADMIN_VERIFY_TOKEN_EXPIRATION_TIME)
	admin, err := s.admins.Create(ctx, models.Admin{
		Name:              strings.TrimSpace(req.Name),
		Email:             normalizeEmail(req.Email),
		PasswordHash:      string(hash),
		VerifyToken:       token,
		VerifyTokenExpiry: &expiry,
		CreatedAt:         now,
		ModifiedAt:        now,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, util.BadRequest("Admin account already exists. Only one admin is allowed")
	}
	if err != nil {
		return nil, util.Internal(err, "create admin")
	}

	subject, body := notify.AdminVerifyEmail(admin.Name, s.link("/admin/verify-email", url.Values{"token": {token}}))
	if !s.notifier.Email(admin.Email, subject, body) {
		util.LogWarning("admin verification email not queued", zap.String("admin", admin.Id.Hex()))
	}
	util.LogInfo("admin registered", zap.String("admin", admin.Id.Hex()))
	return admin, nil
}

func (s *adminService) VerifyEmail(ctx context.Context, token string) (*models.Admin, error) {
	admin, err := s.admins.VerifyEmail(ctx, token, s.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.BadRequest("Invalid or expired verification token")
	}
	if err != nil {
		return nil, util.Internal(err, "verify admin email")
	}
	return admin, nil
}

func (s *adminService) Login(ctx context.Context, req models.AdminLoginRequest) (*AdminLoginResult, error) {
	admin, err := s.admins.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, util.Internal(err, "find admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, util.Unauthorized("Invalid credentials")
	}
	if !admin.EmailVerified {
		return nil, util.Forbidden("Please verify your email first")
	}

	now := s.now().UTC()
	if err := s.admins.TouchLogin(ctx, admin.Id, now); err != nil {
		util.LogError("record admin login", err, zap.String("admin", admin.Id.Hex()))
	}
	admin.LastLogin = &now

	token, err := s.tokens.GenerateJWT(models.Principal{ID: admin.Id, Role: models.RoleAdmin, Email: admin.Email})
	if err != nil {
		return nil, util.Internal(err, "issue token")
	}
	return &AdminLoginResult{Token: token, Admin: admin}, nil
}

// ForgetAuth emails a reset link. It succeeds whether or not the email
// belongs to the admin.
func (s *adminService) ForgetAuth(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	admin, err := s.admins.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		util.LogInfo("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return util.Internal(err, "find admin")
	}

	token, err := auth.GenerateSecureToken(common.SECURE_TOKEN_BYTES)
	if err != nil {
		return util.Internal(err, "generate reset token")
	}
	expiry := s.now().UTC().Add(common.ADMIN_RESET_TOKEN_EXPIRATION_TIME)
	if err := s.admins.SetResetToken(ctx, admin.Id, token, expiry); err != nil {
		return util.Internal(err, "save reset token")
	}

	subject, body := notify.AdminResetEmail(admin.Name, s.link("/admin/reset-auth", url.Values{"token": {token}, "email": {email}}))
	s.notifier.Email(admin.Email, subject, body)
	return nil
}

func (s *adminService) ResetAuth(ctx context.Context, req models.AdminResetAuthRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return util.Internal(err, "hash password")
	}

	_, err = s.admins.ResetPassword(ctx, normalizeEmail(req.Email), req.Token, string(hash), s.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return util.BadRequest("Invalid or expired reset token")
	}
	if err != nil {
		return util.Internal(err, "reset admin password")
	}
	return nil
}

func (s *adminService) Me(ctx context.Context, p models.Principal) (*models.Admin, error) {
	admin, err := s.admins.FindByID(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.NotFound("Admin not found")
	}
	if err != nil {
		return nil, util.Internal(err, "find admin")
	}
	return admin, nil
}
