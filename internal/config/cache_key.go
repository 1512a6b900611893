package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key holding a user's active login JTI.
func (r *CacheKeyStruct) UserLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// UserMuteKey returns the cache key for a user's sound mute preference.
func (r *CacheKeyStruct) UserMuteKey(userID int) string {
	return fmt.Sprintf("user:%d:sound_muted", userID)
}

// SessionResultAckKey returns the key set by the result worker once a
// session's result row is confirmed in Postgres.
func (r *CacheKeyStruct) SessionResultAckKey(sessionID string) string {
	return fmt.Sprintf("session:%s:result_ack", sessionID)
}

var CacheKey = NewCacheKeyStruct()
