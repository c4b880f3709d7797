package model

import "time"

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	VerifyToken      string     `gorm:"size:64;index" json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}
