package user

import "time"

// EmailVerification holds the pending 6-digit code for an email address.
type EmailVerification struct {
	Email     string    `gorm:"primaryKey;type:varchar(255)" json:"email"`
	Code      string    `gorm:"not null;column:code" json:"code"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at" json:"expiresAt"`
}

func (EmailVerification) TableName() string { return "email_verifications" }

func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
