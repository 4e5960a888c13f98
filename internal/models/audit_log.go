package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records lifecycle and authentication events. AccountID is kept as a plain column
// because rejected accounts are deleted while their audit trail remains.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID *string   `gorm:"size:36;index" json:"accountId"`
	Email     string    `gorm:"size:320" json:"email"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Resource  string    `gorm:"size:64;index" json:"resource"`
	Result    string    `gorm:"size:16;not null" json:"result"`
	IPAddress string    `gorm:"size:64" json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Metadata  string    `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
