package constants

import "time"

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultTimeout        = 5 * time.Second

	// ExternalCallTimeout bounds every call across the venue boundary.
	ExternalCallTimeout = 10 * time.Second

	DefaultLockTTL = 60 * time.Second

	DefaultPageSize = 50
)

const (
	ContextTokenData  = "token_data"
	ContextActor      = "actor"
	HeaderIntakeToken = "X-Intake-Token"
	ScopeTokenAccess  = "access"
)

const (
	RedisKeyEditLock = "event_roster:lock:"
	RedisKeyTimer    = "event_roster:timer:"
)

const (
	TaskTypeVenueOpen  = "venue:open"
	TaskTypeVenueClose = "venue:close"
)
