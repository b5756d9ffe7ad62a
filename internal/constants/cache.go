package constants

import "time"

const (
	UserCachePrefix    = "user"    // User profile cache by userID (CacheBuilder adds colon)
	SessionCachePrefix = "session" // Session token cache by token ID
	UserCacheExpiry    = 7 * 24 * time.Hour
)
