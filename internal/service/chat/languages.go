package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
	"github.com/EzRa021/Muhu-voice-app/internal/remote"
)

type ProfileCache interface {
	Get(userID string) (*model.UserProfile, error)
	Set(userID string, profile *model.UserProfile) error
}

// Languages resolves user profiles and language tags, reading through the
// session cache to the remote store.
type Languages struct {
	store remote.Store
	cache ProfileCache
}

func NewLanguages(store remote.Store, cache ProfileCache) *Languages {
	return &Languages{store: store, cache: cache}
}

func (l *Languages) ProfileFor(ctx context.Context, userID string) (*model.UserProfile, error) {
	if l.cache != nil {
		if profile, err := l.cache.Get(userID); err == nil {
			return profile, nil
		}
	}

	raw, ok, err := l.store.Get(ctx, "users/"+userID)
	if err != nil {
		return nil, fmt.Errorf("fetching profile for %s: %w", userID, err)
	}
	if !ok {
		return nil, model.ErrorUserNotFound
	}

	profile := &model.UserProfile{}
	if err := json.Unmarshal(raw, profile); err != nil {
		return nil, fmt.Errorf("decoding profile for %s: %w", userID, err)
	}

	if l.cache != nil {
		if err := l.cache.Set(userID, profile); err != nil {
			log.Warnf("caching profile for %s: %v", userID, err)
		}
	}
	return profile, nil
}

// LanguageFor returns the user's language tag, defaulting to english for
// unknown users or unset profiles.
func (l *Languages) LanguageFor(ctx context.Context, userID string) (string, error) {
	profile, err := l.ProfileFor(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrorUserNotFound) {
			return (&model.UserProfile{}).LanguageOrDefault(), nil
		}
		return "", err
	}
	return profile.LanguageOrDefault(), nil
}
