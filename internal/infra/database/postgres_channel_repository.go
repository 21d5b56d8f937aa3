// internal/infra/database/postgres_channel_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"subwatch/internal/domain/channel"
)

var ErrSettingsNotFound = fmt.Errorf("notification settings not found")
var ErrChannelNotConfigured = fmt.Errorf("channel not configured")

type PostgresChannelRepository struct {
	db *sql.DB
}

func NewPostgresChannelRepository(db *sql.DB) *PostgresChannelRepository {
	return &PostgresChannelRepository{db: db}
}

func (r *PostgresChannelRepository) GetSettings(ctx context.Context, userID int64) (*channel.Settings, error) {
	query := `SELECT user_id, days_before,
	                 email_enabled, discord_enabled, telegram_enabled,
	                 pushover_enabled, pushplus_enabled, mattermost_enabled,
	                 ntfy_enabled, gotify_enabled, webhook_enabled, created_at
	            FROM notification_settings WHERE user_id = $1`

	s := channel.Settings{Enabled: make(map[channel.Kind]bool, len(channel.Kinds))}
	var email, discord, telegram, pushover, pushplus, mattermost, ntfy, gotify, webhook bool
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.DaysBefore,
		&email, &discord, &telegram,
		&pushover, &pushplus, &mattermost,
		&ntfy, &gotify, &webhook, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("error getting notification settings: %w", err)
	}

	s.Enabled[channel.KindEmail] = email
	s.Enabled[channel.KindDiscord] = discord
	s.Enabled[channel.KindTelegram] = telegram
	s.Enabled[channel.KindPushover] = pushover
	s.Enabled[channel.KindPushPlus] = pushplus
	s.Enabled[channel.KindMattermost] = mattermost
	s.Enabled[channel.KindNtfy] = ntfy
	s.Enabled[channel.KindGotify] = gotify
	s.Enabled[channel.KindWebhook] = webhook
	return &s, nil
}

func (r *PostgresChannelRepository) GetConfig(ctx context.Context, userID int64, kind channel.Kind) (*channel.Config, error) {
	query := `SELECT id, user_id, settings, created_at
	            FROM channel_configs WHERE user_id = $1 AND kind = $2`

	cfg := channel.Config{Kind: kind}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, userID, kind).Scan(&cfg.ID, &cfg.UserID, &raw, &cfg.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrChannelNotConfigured
		}
		return nil, fmt.Errorf("error getting channel config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg.Settings); err != nil {
		return nil, fmt.Errorf("error decoding channel config settings: %w", err)
	}
	return &cfg, nil
}
