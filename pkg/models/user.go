package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an applicant account, created on first successful OTP verification.
type User struct {
	Id         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Phone      string             `bson:"phone" json:"phoneNumber"`
	IsVerified bool               `bson:"is_verified" json:"isVerified"`
	LastLogin  time.Time          `bson:"last_login" json:"lastLogin"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	ModifiedAt time.Time          `bson:"modified_at" json:"modifiedAt"`
}

// Admin is the single administrator account.
type Admin struct {
	Id                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	PasswordHash      string             `bson:"password_hash" json:"-"`
	Singleton         bool               `bson:"singleton" json:"-"`
	EmailVerified     bool               `bson:"email_verified" json:"emailVerified"`
	VerifyToken       string             `bson:"verify_token,omitempty" json:"-"`
	VerifyTokenExpiry *time.Time         `bson:"verify_token_expiry,omitempty" json:"-"`
	ResetToken        string             `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExpiry  *time.Time         `bson:"reset_token_expiry,omitempty" json:"-"`
	LastLogin         *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
	ModifiedAt        time.Time          `bson:"modified_at" json:"modifiedAt"`
}

type AuthToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}
