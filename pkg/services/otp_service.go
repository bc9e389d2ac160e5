package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/notify"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Notifier queues outgoing messages. It reports whether the message was
// accepted for delivery, never whether it was delivered.
type Notifier interface {
	SMS(to, message string) bool
	Email(to, subject, html string) bool
}

type otpService struct {
	otps      store.OTPStore
	users     store.UserStore
	tokens    *auth.Tokens
	blacklist auth.Blacklist
	notifier  Notifier
	now       Clock
}

func NewOTPService(otps store.OTPStore, users store.UserStore, tokens *auth.Tokens, blacklist auth.Blacklist, notifier Notifier, now Clock) OTPService {
	return &otpService{
		otps:      otps,
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		notifier:  notifier,
		now:       now.orDefault(),
	}
}

// generateOTP returns a zero padded random numeric code.
func generateOTP(length int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < length; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

// SendOTP stores a fresh code for phone, replacing any pending one, and
// texts it to the applicant.
func (s *otpService) SendOTP(ctx context.Context, phone string) error {
	phone = common.NormalizePhone(phone)

	code, err := generateOTP(common.OTP_LENGTH)
	if err != nil {
		return util.Internal(err, "generate otp")
	}
	if err := s.otps.Save(ctx, phone, code, common.OTP_EXPIRATION_TIME); err != nil {
		return util.Internal(err, "save otp")
	}

	minutes := int(common.OTP_EXPIRATION_TIME / time.Minute)
	if !s.notifier.SMS(phone, notify.OTPMessage(code, minutes)) {
		util.LogWarning("otp sms not queued", zap.String("phone", phone))
	}
	return nil
}

// VerifyOTP consumes the pending code and signs the applicant in, creating
// the account on first use.
func (s *otpService) VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error) {
	phone = common.NormalizePhone(phone)

	saved, err := s.otps.Get(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return nil, util.BadRequest("OTP expired or not found")
	}
	if err != nil {
		return nil, util.Internal(err, "read otp")
	}
	if subtle.ConstantTimeCompare([]byte(saved), []byte(code)) != 1 {
		return nil, util.BadRequest("Invalid OTP")
	}

	if err := s.otps.Delete(ctx, phone); err != nil {
		return nil, util.Internal(err, "delete otp")
	}

	user, err := s.users.UpsertByPhone(ctx, phone, s.now())
	if err != nil {
		return nil, util.Internal(err, "upsert user")
	}

	token, err := s.tokens.GenerateJWT(models.Principal{ID: user.Id, Role: models.RoleApplicant, Phone: user.Phone})
	if err != nil {
		return nil, util.Internal(err, "issue token")
	}

	util.LogInfo("applicant signed in", zap.String("user", user.Id.Hex()))
	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes token for the rest of its lifetime.
func (s *otpService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if err := s.blacklist.Revoke(ctx, token, ttl); err != nil {
		return util.Internal(err, "revoke token")
	}
	return nil
}
