package channel

import "time"

// Kind identifies one notification delivery mechanism.
type Kind string

const (
	KindEmail      Kind = "email"
	KindDiscord    Kind = "discord"
	KindTelegram   Kind = "telegram"
	KindPushover   Kind = "pushover"
	KindPushPlus   Kind = "pushplus"
	KindMattermost Kind = "mattermost"
	KindNtfy       Kind = "ntfy"
	KindGotify     Kind = "gotify"
	KindWebhook    Kind = "webhook"
)

// Kinds lists every supported channel kind in a stable dispatch order.
var Kinds = []Kind{
	KindEmail,
	KindDiscord,
	KindTelegram,
	KindPushover,
	KindPushPlus,
	KindMattermost,
	KindNtfy,
	KindGotify,
	KindWebhook,
}

// Settings is a user's per-channel enabled flags.
type Settings struct {
	UserID     int64
	DaysBefore int
	Enabled    map[Kind]bool
	CreatedAt  time.Time
}

// IsEnabled reports whether the user has switched the given kind on.
func (s *Settings) IsEnabled(kind Kind) bool {
	if s == nil {
		return false
	}
	return s.Enabled[kind]
}

// Config is a user's credential/configuration blob for one channel kind.
// Settings keys are provider specific (webhook_url, bot_token, smtp_host, ...).
type Config struct {
	ID        int64
	UserID    int64
	Kind      Kind
	Settings  map[string]string
	CreatedAt time.Time
}
