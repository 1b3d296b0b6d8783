package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"
)

// User is the credential and session record. A single session token is valid at
// a time; issuing a new one overwrites (and thereby invalidates) the previous.
type User struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	Username             string     `json:"username" gorm:"unique;not null"`
	Email                string     `json:"email" gorm:"unique;not null"`
	Password             []byte     `json:"-" gorm:"not null"`
	RoleID               uint       `json:"role_id"`
	IsLoggedIn           bool       `json:"is_logged_in" gorm:"default:false"`
	SessionToken         string     `json:"-"`
	RefreshToken         string     `json:"-" gorm:"type:text"`
	Status               string     `json:"status" gorm:"type:varchar(20);default:active"`
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (user *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	return nil
}

func (user *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(user.Password, []byte(password))
}
