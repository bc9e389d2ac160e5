package common

import (
	"strings"
	"time"

	"applicant-api-io/api/internal/validators"

	"github.com/go-playground/validator/v10"
)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := validators.Register(v); err != nil {
		panic(err)
	}
	return v
}

// Collection names
const (
	ProfileCollection             = "UserProfile"
	ApplicationCollection         = "Application"
	ApplicationCooldownCollection = "ApplicationCooldown"
	UserCollection                = "User"
	AdminCollection               = "Admin"
)

const (
	REQUEST_TIMEOUT_SECS     = 2 * 60 * time.Second
	MONGO_DUPLICATE_KEY_CODE = 11000

	OTP_LENGTH          = 6
	OTP_EXPIRATION_TIME = 10 * time.Minute

	ADMIN_VERIFY_TOKEN_EXPIRATION_TIME = 24 * time.Hour
	ADMIN_RESET_TOKEN_EXPIRATION_TIME  = 1 * time.Hour
	SECURE_TOKEN_BYTES                 = 32
	BCRYPT_COST                        = 14

	RECENT_APPLICATIONS_LIMIT = 10
	DEFAULT_PAGE_LIMIT        = 10
	MAX_PAGE_LIMIT            = 100
	MAX_PAGE                  = 10000
	PROFILE_WRITE_ATTEMPTS    = 3

	PROFILE_PIC_MAX_SIZE = 3 << 20
	IDENTITY_MAX_SIZE    = 3 << 20
	DOCUMENT_MAX_SIZE    = 5 << 20
	MAX_MULTIPART_MEMORY = 32 << 20
)

// NormalizePhone returns a Bangladeshi mobile number in local 01XXXXXXXXX form.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "880") {
		phone = phone[2:]
	}
	return phone
}
