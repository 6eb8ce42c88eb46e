package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	FirstName    string
	LastName     string
	Description  string
	// Active is cleared on deactivation instead of deleting the row, so
	// revocation records and token subjects keep a referent.
	Active bool `gorm:"default:true"`
}

// RevokedToken is one entry in the append-only revocation set. A jti present
// here makes its token permanently invalid regardless of signature or
// remaining lifetime. TokenExpiresAt lets the pruner drop records once the
// token could no longer pass validation anyway.
type RevokedToken struct {
	gorm.Model
	Jti            string    `gorm:"uniqueIndex"`
	TokenExpiresAt time.Time `gorm:"index"`
}
