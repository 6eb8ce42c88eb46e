package dbhelper

import (
	"time"

	"github.com/sessionapp/apiv1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationLedger is the durable set of revoked token ids. Every protected
// request consults it synchronously; a write that fails must surface as a
// failed logout, never as a silent success.
type RevocationLedger struct {
	db *gorm.DB
}

func NewRevocationLedger(db *gorm.DB) *RevocationLedger {
	return &RevocationLedger{db: db}
}

// Revoke appends the jti to the ledger. Re-revoking an already revoked
// token is a no-op.
func (l *RevocationLedger) Revoke(jti string, tokenExpiresAt time.Time) error {
	record := models.RevokedToken{Jti: jti, TokenExpiresAt: tokenExpiresAt}
	return l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
}

func (l *RevocationLedger) IsRevoked(jti string) (bool, error) {
	var count int64
	err := l.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PruneExpired deletes records whose token has passed its natural expiry.
// An expired token can never pass validation, revoked or not, so these rows
// only cost space.
func (l *RevocationLedger) PruneExpired(now time.Time) (int64, error) {
	result := l.db.Unscoped().
		Where("token_expires_at < ?", now).
		Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}
