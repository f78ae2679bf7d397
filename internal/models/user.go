package models

import (
	"time"
)

type User struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Username      string     `gorm:"uniqueIndex;not null" json:"username"`
	Email         string     `json:"email,omitempty"`
	Hash          string     `gorm:"not null" json:"-"` // bcrypt password hash
	GivenName     string     `json:"givenName,omitempty"`
	FamilyName    string     `json:"familyName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `gorm:"index" json:"deletedAt,omitempty"`
	DeletedReason string     `json:"deletedReason,omitempty"`
}

// IsDeleted reports whether the account was soft-deleted
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Redacted returns a copy safe to embed in tokens and responses:
// no password hash and no deletion metadata.
func (u User) Redacted() User {
	u.Hash = ""
	u.DeletedAt = nil
	u.DeletedReason = ""
	return u
}

// Ref returns the minimal reference embedded in authorization codes
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}
