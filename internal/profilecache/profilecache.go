package profilecache

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

// profileCache is a session-lifetime cache of peer profiles, so resolving a
// recipient's language does not hit the remote store on every send.
type profileCache struct {
	db *sqlx.DB
}

func New() (*profileCache, error) {
	db, err := sqlx.Connect("sqlite3", "file:profilecache.db?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cache := &profileCache{db}
	cache.init()

	return cache, nil
}

func (s *profileCache) init() {
	s.db.MustExec(`create table if not exists profile_cache (
		user_id   text primary key,
		Username  text not null,
		PhotoURL  text not null default '',
		Language  text not null default ''
	)`)
}

func (s *profileCache) Close() error {
	return s.db.Close()
}

func (s *profileCache) Get(userID string) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	err := s.db.Get(profile, `select Username, PhotoURL, Language from profile_cache where user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("getting profile from cache: %w", err)
	}
	return profile, nil
}

func (s *profileCache) Set(userID string, profile *model.UserProfile) error {
	_, err := s.db.Exec(`insert into profile_cache (user_id, Username, PhotoURL, Language)
		values (?, ?, ?, ?)
		on conflict(user_id) do update set Username=excluded.Username, PhotoURL=excluded.PhotoURL, Language=excluded.Language`,
		userID, profile.Username, profile.PhotoURL, profile.Language)
	if err != nil {
		return fmt.Errorf("setting profile in cache: %w", err)
	}
	return nil
}
