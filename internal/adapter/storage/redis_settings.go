package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warebridge/stocksync/internal/core/domain"
)

const settingsKey = "stocksync:settings"

// Hash fields in the settings store. The host settings UI writes these, the
// sync pipeline only reads them.
const (
	fieldMagentoURL   = "MAGENTO_URL"
	fieldAccessToken  = "ACCESS_TOKEN"
	fieldEnableSync   = "ENABLE_SYNC"
	fieldDryRun       = "DRY_RUN"
	fieldVerifySSL    = "VERIFY_SSL"
	fieldTimeout      = "TIMEOUT"
	fieldSyncOnCreate = "SYNC_ON_CREATE"
	fieldSyncOnUpdate = "SYNC_ON_UPDATE"
	fieldSyncOnDelete = "SYNC_ON_DELETE"
)

// RedisSettings reads operator sync settings from a Redis hash, falling back
// to the documented defaults for unset or unparsable fields.
type RedisSettings struct {
	client *redis.Client
}

func NewRedisSettings(client *redis.Client) *RedisSettings {
	return &RedisSettings{client: client}
}

func (r *RedisSettings) Load(ctx context.Context) (domain.Settings, error) {
	fields, err := r.client.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return domain.Settings{}, err
	}

	s := domain.DefaultSettings()
	if v, ok := fields[fieldMagentoURL]; ok {
		s.RemoteURL = v
	}
	if v, ok := fields[fieldAccessToken]; ok {
		s.AccessToken = v
	}
	s.EnableSync = parseBool(fields, fieldEnableSync, s.EnableSync)
	s.DryRun = parseBool(fields, fieldDryRun, s.DryRun)
	s.VerifySSL = parseBool(fields, fieldVerifySSL, s.VerifySSL)
	s.SyncOnCreate = parseBool(fields, fieldSyncOnCreate, s.SyncOnCreate)
	s.SyncOnUpdate = parseBool(fields, fieldSyncOnUpdate, s.SyncOnUpdate)
	s.SyncOnDelete = parseBool(fields, fieldSyncOnDelete, s.SyncOnDelete)

	if v, ok := fields[fieldTimeout]; ok {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			s.Timeout = time.Duration(secs) * time.Second
		}
	}

	return s, nil
}

func parseBool(fields map[string]string, key string, fallback bool) bool {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
