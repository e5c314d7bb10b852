package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	FullName      string     `json:"full_name,omitempty" db:"full_name"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	Status        string     `json:"status" db:"status"`
	PlatformRole  string     `json:"platform_role" db:"platform_role"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
