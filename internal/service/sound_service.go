package service

import (
	"context"
	"errors"
	"path"

	"github.com/prepmed/prepmed-backend/internal/config"
	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/redis/go-redis/v9"
)

// SoundService persists per-user mute preferences in Redis and maps engine
// cues to the audio clips the client should play.
type SoundService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewSoundService creates a new SoundService.
func NewSoundService(cfg *config.Config, rdb *redis.Client) *SoundService {
	return &SoundService{cfg: cfg, rdb: rdb}
}

// GetMuted implements engine.MuteStore. A missing key means the preference
// was never set.
func (s *SoundService) GetMuted(ctx context.Context, userID int) (bool, bool, error) {
	v, err := s.rdb.Get(ctx, config.CacheKey.UserMuteKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, err
	}
	return v == "1", true, nil
}

// SetMuted implements engine.MuteStore. The preference does not expire.
func (s *SoundService) SetMuted(ctx context.Context, userID int, muted bool) error {
	v := "0"
	if muted {
		v = "1"
	}
	return s.rdb.Set(ctx, config.CacheKey.UserMuteKey(userID), v, 0).Err()
}

// ClipURL resolves a cue to the audio asset the client plays for it.
// Unknown cues resolve to an empty string and the client plays nothing.
func (s *SoundService) ClipURL(cue engine.Cue) string {
	var clip string
	switch cue {
	case engine.CueCorrect:
		clip = "correct.mp3"
	case engine.CueIncorrect:
		clip = "incorrect.mp3"
	case engine.CueReveal:
		clip = "reveal.mp3"
	default:
		return ""
	}
	return path.Join(s.cfg.SoundAssetBaseURL, clip)
}
