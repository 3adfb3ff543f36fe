package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a server-issued login token. Login creates one, logout
// deletes it, and every authenticated request validates the cookie value
// against this table.
type Session struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	// Token is the opaque value stored in the session cookie.
	Token string `gorm:"uniqueIndex;size:36;not null"`

	UserID string `gorm:"index;not null"`

	// ExpiresAt bounds the token's validity; lookups treat expired rows
	// as absent.
	ExpiresAt time.Time `gorm:"index;not null"`

	User User `gorm:"foreignKey:UserID"`
}

// CreateSession issues a fresh session token for the given user.
func CreateSession(db *gorm.DB, userID string, ttl time.Duration) (*Session, error) {
	s := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// SessionUser resolves a token to its owning user. Expired or unknown
// tokens return gorm.ErrRecordNotFound.
func SessionUser(db *gorm.DB, token string) (*User, error) {
	var s Session
	err := db.Where("token = ? AND expires_at > ?", token, time.Now()).
		Preload("User").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s.User, nil
}

// DeleteSession revokes a token. Deleting an unknown token is not an error.
func DeleteSession(db *gorm.DB, token string) error {
	return db.Where("token = ?", token).Delete(&Session{}).Error
}

// DeleteExpiredSessions removes rows whose validity window has passed.
func DeleteExpiredSessions(db *gorm.DB) error {
	return db.Where("expires_at <= ?", time.Now()).Delete(&Session{}).Error
}
