package constants

import "time"

// Request / network
const (
	DefaultTimeout    = 15 * time.Second
	HTTPClientTimeout = 10 * time.Second
	ProviderTimeout   = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// Database pool
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Redis keys
const (
	RedisKeyEventCollection    = "agenda:events:"    // + user key
	RedisKeyReminderCollection = "agenda:reminders:" // + user key
	RedisKeyKnownUsers         = "agenda:users"
)

// Credential lifecycle
const (
	// TokenRefreshThreshold is the remaining lifetime below which EnsureValid
	// performs a silent refresh before handing out the access token.
	TokenRefreshThreshold = 60 * time.Second

	OAuthStateLifetime = 10 * time.Minute
)

// Reminder scheduling
const (
	DueCheckInterval = 60 * time.Second

	TaskTypeDueCheck = "reminder:due_check"
	QueueReminders   = "reminders"
)

// Sync window bounds relative to the moment a sync pass starts.
const (
	SyncWindowPast   = 30 * 24 * time.Hour
	SyncWindowFuture = 90 * 24 * time.Hour
)
