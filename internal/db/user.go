package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an operator account that can sign in and browse the
// dashboard API. The bootstrap account (from env) is created as a row in
// this table on startup.
type User struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// Name is an optional display name.
	Name string `gorm:"size:128" json:"name"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FindUserByEmail looks a user up by exact email. Returns
// gorm.ErrRecordNotFound when no such account exists.
func FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
