package models

import "gorm.io/datatypes"

// Organization is the tenant boundary. Exactly one Account with RoleOwner administers it.
type Organization struct {
	BaseModel

	Name     string         `gorm:"size:160;not null;uniqueIndex" json:"name"`
	Settings datatypes.JSON `json:"settings,omitempty"`

	Accounts []Account `gorm:"foreignKey:OrganizationID" json:"accounts,omitempty"`
}
