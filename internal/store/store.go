// Package store persists user profiles, preferences, sources and device
// tokens. MemoryStore backs tests and single-process runs; RedisStore backs
// deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/feedhound/marketnews/internal/aggregate"
	"github.com/feedhound/marketnews/internal/interest"
)

var ErrNotFound = errors.New("store: not found")

// DeviceToken is one registered push target for a user.
type DeviceToken struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	DeviceType string    `json:"device_type"`
	UserID     string    `json:"user_id"`
	Active     bool      `json:"active"`
	LastUsed   time.Time `json:"last_used"`
}

// Preference holds a user's notification settings. QuietStart/QuietEnd are
// hours of day; nil disables quiet hours. Categories maps category name to
// enabled; a missing key means enabled.
type Preference struct {
	UserID         string          `json:"user_id"`
	Categories     map[string]bool `json:"categories"`
	QuietStart     *int            `json:"quiet_start,omitempty"`
	QuietEnd       *int            `json:"quiet_end,omitempty"`
	WeekendUpdates bool            `json:"weekend_updates"`
}

// Store is the persistence surface for the digest pipeline.
type Store interface {
	Profile(ctx context.Context, userID string) (interest.Profile, error)
	SaveProfile(ctx context.Context, userID string, p interest.Profile) error

	Sources(ctx context.Context, userID string) ([]aggregate.Source, error)
	SaveSources(ctx context.Context, userID string, sources []aggregate.Source) error

	Preferences(ctx context.Context, userID string) (Preference, error)
	SavePreferences(ctx context.Context, p Preference) error

	Tokens(ctx context.Context, userID string) ([]DeviceToken, error)
	UpsertToken(ctx context.Context, t DeviceToken) error
	DeactivateToken(ctx context.Context, token string) error
	TouchToken(ctx context.Context, token string, at time.Time) error

	Users(ctx context.Context) ([]string, error)
}
