// Package moderation is a persisted ban list for the relay: player name
// or IP to a reason and optional expiry. It is intentionally isolated
// from internal/session — nothing here ever touches a Client Record or
// vehicle state, preserving the no-persisted-session-state guarantee
// (spec.md §9); it only gates whether a connection attempt is admitted in
// the first place.
package moderation

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotBanned is returned by Unban when the identifier has no active ban.
var ErrNotBanned = errors.New("moderation: identifier is not banned")

// Ban is a single persisted ban record.
type Ban struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`

	// Identifier is the banned player name or IP address. Matching is
	// exact and case-sensitive — the operator is expected to ban the
	// identifier as it appears in the connection log.
	Identifier string `gorm:"uniqueIndex;not null"`
	Reason     string
	// ExpiresAt is zero for a permanent ban.
	ExpiresAt time.Time
}

// BeforeCreate assigns a time-ordered UUID if one is not already set,
// matching the teacher's id-generation convention for every persisted
// model.
func (b *Ban) BeforeCreate(tx *gorm.DB) error {
	if b.ID == (uuid.UUID{}) {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	return nil
}

// Store is the ban list, backed by a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// New wraps db as a Store, auto-migrating the Ban schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Ban{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Ban inserts or refreshes a ban for identifier. A zero expiresAt means
// permanent.
func (s *Store) Ban(identifier, reason string, expiresAt time.Time) error {
	ban := Ban{Identifier: identifier, Reason: reason, ExpiresAt: expiresAt}
	return s.db.Where(Ban{Identifier: identifier}).
		Assign(Ban{Reason: reason, ExpiresAt: expiresAt}).
		FirstOrCreate(&ban).Error
}

// Unban removes any ban on identifier. Returns ErrNotBanned if there was
// none.
func (s *Store) Unban(identifier string) error {
	result := s.db.Where("identifier = ?", identifier).Delete(&Ban{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotBanned
	}
	return nil
}

// IsBanned reports whether identifier currently has an active,
// unexpired ban, along with the reason it was banned for.
func (s *Store) IsBanned(identifier string) (bool, string, error) {
	var ban Ban
	err := s.db.Where("identifier = ?", identifier).First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	if !ban.ExpiresAt.IsZero() && time.Now().After(ban.ExpiresAt) {
		return false, "", nil
	}
	return true, ban.Reason, nil
}

// List returns every currently persisted ban, expired or not, for the
// admin surface's listing endpoint.
func (s *Store) List() ([]Ban, error) {
	var bans []Ban
	if err := s.db.Order("created_at desc").Find(&bans).Error; err != nil {
		return nil, err
	}
	return bans, nil
}
