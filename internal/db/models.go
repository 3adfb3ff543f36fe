package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Severity levels form a closed set. Ingestion rejects anything else;
// listing silently ignores anything else.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// ValidLevel reports whether s is one of the three accepted levels.
func ValidLevel(s string) bool {
	return s == LevelError || s == LevelWarning || s == LevelInfo
}

// Event is a single reported error/warning/info log row. The JSON tags
// define the wire shape returned by every endpoint, so optional columns
// are pointers and serialize as null when absent.
type Event struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	Message string  `gorm:"not null" json:"message"`
	Stack   *string `json:"stack"`
	Level   string  `gorm:"size:16;index;not null;default:error" json:"level"`

	// Metadata is an opaque serialized text blob. The store never parses
	// or validates it; whatever the client sent is preserved verbatim.
	Metadata *string `json:"metadata"`

	ServerURL *string `gorm:"index" json:"serverUrl"`

	// UserID is a plain denormalized string, deliberately not a foreign
	// key: public ingestion accepts reporting identities that match no
	// registered account.
	UserID        string  `gorm:"index;not null" json:"userId"`
	UserSecretKey *string `json:"userSecretKey"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
