package channel

import (
	"context"
)

// Repository defines read access to a user's notification channel configuration.
type Repository interface {
	// GetSettings returns the user's enabled-channel flags, or
	// ErrSettingsNotFound (from the infra package) when the user never
	// configured notifications.
	GetSettings(ctx context.Context, userID int64) (*Settings, error)
	// GetConfig returns the credential blob for one channel kind.
	GetConfig(ctx context.Context, userID int64, kind Kind) (*Config, error)
}
