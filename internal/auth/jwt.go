package auth

import (
	"time"

	"applicant-api-io/api/pkg/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JWTClaim struct {
	Id          string      `json:"id"`
	Role        models.Role `json:"role"`
	PhoneNumber string      `json:"phoneNumber,omitempty"`
	Email       string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claim into the caller identity.
func (j JWTClaim) Principal() (models.Principal, error) {
	id, err := primitive.ObjectIDFromHex(j.Id)
	if err != nil {
		return models.Principal{}, errors.Wrap(err, "invalid subject")
	}
	if j.Role != models.RoleApplicant && j.Role != models.RoleAdmin {
		return models.Principal{}, errors.Errorf("unknown role %q", j.Role)
	}
	return models.Principal{ID: id, Role: j.Role, Phone: j.PhoneNumber, Email: j.Email}, nil
}

// ExpiresAt returns the claim's expiry, or the zero time if it has none.
func (j JWTClaim) ExpiresAt() time.Time {
	exp, err := j.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Tokens issues and validates HS256 access tokens. Applicant and admin
// tokens share the secret and differ in role and lifetime.
type Tokens struct {
	secret       []byte
	applicantTTL time.Duration
	adminTTL     time.Duration
	Now          func() time.Time
}

func NewTokens(secret string, applicantTTL, adminTTL time.Duration) *Tokens {
	return &Tokens{
		secret:       []byte(secret),
		applicantTTL: applicantTTL,
		adminTTL:     adminTTL,
		Now:          time.Now,
	}
}

// Generate auth token for principal.
func (t *Tokens) GenerateJWT(p models.Principal) (models.AuthToken, error) {
	ttl := t.applicantTTL
	if p.IsAdmin() {
		ttl = t.adminTTL
	}
	now := t.Now()
	expirationTime := now.Add(ttl)

	claims := JWTClaim{
		Id:          p.ID.Hex(),
		Role:        p.Role,
		PhoneNumber: p.Phone,
		Email:       p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return models.AuthToken{}, err
	}
	return models.AuthToken{Token: tokenString, ExpiresAt: expirationTime.Unix()}, nil
}

// Validate a signed jwt auth token and its expiration time.
func (t *Tokens) ValidateToken(signedToken string) (JWTClaim, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&JWTClaim{},
		func(token *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return JWTClaim{}, err
	}

	claim, ok := token.Claims.(*JWTClaim)
	if !ok || !token.Valid {
		return JWTClaim{}, errors.New("couldn't parse claims")
	}
	return *claim, nil
}
