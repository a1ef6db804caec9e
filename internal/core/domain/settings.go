package domain

import "time"

// Settings are the operator-tunable sync settings, read fresh from the host
// settings store for every event.
type Settings struct {
	RemoteURL   string
	AccessToken string
	EnableSync  bool
	DryRun      bool
	VerifySSL   bool
	Timeout     time.Duration

	SyncOnCreate bool
	SyncOnUpdate bool
	SyncOnDelete bool
}

// DefaultSettings returns the documented defaults: sync disabled, dry-run
// disabled, SSL verification on, 30s timeout, all event classes accepted.
func DefaultSettings() Settings {
	return Settings{
		VerifySSL:    true,
		Timeout:      30 * time.Second,
		SyncOnCreate: true,
		SyncOnUpdate: true,
		SyncOnDelete: true,
	}
}
