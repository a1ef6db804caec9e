package port

import (
	"context"

	"github.com/warebridge/stocksync/internal/core/domain"
)

type SettingsRepository interface {
	// Load reads the current sync settings, filling unset keys with the
	// documented defaults
	Load(ctx context.Context) (domain.Settings, error)
}
