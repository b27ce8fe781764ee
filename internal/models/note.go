package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is a free-text interaction log entry. Notes are never edited.
type Note struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	ClientID  string    `gorm:"size:64;index;not null" json:"clientId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *Note) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
