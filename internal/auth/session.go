package auth

import (
	"context"
	"time"

	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/model"
)

// Session is the cached copy of a logged-in user.
type Session struct {
	ID         uint64      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       model.Role  `json:"role"`
	Avatar     model.Asset `json:"avatar"`
	IsVerified bool        `json:"isVerified"`
}

func NewSession(u *model.User) Session {
	return Session{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
	}
}

type SessionStore interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, userID uint64) (*Session, error)
	Delete(ctx context.Context, userID uint64) error
}

type sessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewSessionStore(c cache.Cache, ttl time.Duration) SessionStore {
	return &sessionStore{cache: c, ttl: ttl}
}

func (s *sessionStore) Save(ctx context.Context, sess Session) error {
	return cache.SetJSON(ctx, s.cache, cache.Key(cache.KeySession, sess.ID), sess, s.ttl)
}

// Load returns ErrSessionNotFound when nothing is cached for userID.
func (s *sessionStore) Load(ctx context.Context, userID uint64) (*Session, error) {
	var sess Session
	ok, err := cache.GetJSON(ctx, s.cache, cache.Key(cache.KeySession, userID), &sess)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *sessionStore) Delete(ctx context.Context, userID uint64) error {
	return s.cache.Del(ctx, cache.Key(cache.KeySession, userID))
}
