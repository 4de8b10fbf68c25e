package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/feedhound/marketnews/internal/aggregate"
	"github.com/feedhound/marketnews/internal/interest"
	"github.com/feedhound/marketnews/internal/logger"
)

// Key layout:
//
//	profile:<userID>     JSON interest.Profile
//	prefs:<userID>       JSON Preference
//	sources:<userID>     JSON []aggregate.Source
//	token:<token>        JSON DeviceToken
//	usertokens:<userID>  set of token strings
//	users                set of user IDs
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn("redis ping failed", "addr", addr, "error", err)
	}

	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return json.Unmarshal(data, v)
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Profile(ctx context.Context, userID string) (interest.Profile, error) {
	var p interest.Profile
	err := s.getJSON(ctx, "profile:"+userID, &p)
	return p, err
}

func (s *RedisStore) SaveProfile(ctx context.Context, userID string, p interest.Profile) error {
	if err := s.setJSON(ctx, "profile:"+userID, p); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, "users", userID).Err()
}

func (s *RedisStore) Sources(ctx context.Context, userID string) ([]aggregate.Source, error) {
	var src []aggregate.Source
	err := s.getJSON(ctx, "sources:"+userID, &src)
	return src, err
}

func (s *RedisStore) SaveSources(ctx context.Context, userID string, sources []aggregate.Source) error {
	if err := s.setJSON(ctx, "sources:"+userID, sources); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, "users", userID).Err()
}

func (s *RedisStore) Preferences(ctx context.Context, userID string) (Preference, error) {
	var p Preference
	err := s.getJSON(ctx, "prefs:"+userID, &p)
	return p, err
}

func (s *RedisStore) SavePreferences(ctx context.Context, p Preference) error {
	if err := s.setJSON(ctx, "prefs:"+p.UserID, p); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, "users", p.UserID).Err()
}

func (s *RedisStore) Tokens(ctx context.Context, userID string) ([]DeviceToken, error) {
	tokens, err := s.rdb.SMembers(ctx, "usertokens:"+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}

	out := make([]DeviceToken, 0, len(tokens))
	for _, tok := range tokens {
		var t DeviceToken
		if err := s.getJSON(ctx, "token:"+tok, &t); err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *RedisStore) UpsertToken(ctx context.Context, t DeviceToken) error {
	var existing DeviceToken
	err := s.getJSON(ctx, "token:"+t.Token, &existing)
	switch err {
	case nil:
		existing.Active = true
		existing.DeviceType = t.DeviceType
		existing.UserID = t.UserID
		existing.LastUsed = time.Now()
		t = existing
	case ErrNotFound:
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.Active = true
		t.LastUsed = time.Now()
	default:
		return err
	}

	if err := s.setJSON(ctx, "token:"+t.Token, t); err != nil {
		return err
	}
	if err := s.rdb.SAdd(ctx, "usertokens:"+t.UserID, t.Token).Err(); err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	return s.rdb.SAdd(ctx, "users", t.UserID).Err()
}

func (s *RedisStore) DeactivateToken(ctx context.Context, token string) error {
	var t DeviceToken
	if err := s.getJSON(ctx, "token:"+token, &t); err != nil {
		return err
	}
	t.Active = false
	return s.setJSON(ctx, "token:"+token, t)
}

func (s *RedisStore) TouchToken(ctx context.Context, token string, at time.Time) error {
	var t DeviceToken
	if err := s.getJSON(ctx, "token:"+token, &t); err != nil {
		return err
	}
	t.LastUsed = at
	return s.setJSON(ctx, "token:"+token, t)
}

func (s *RedisStore) Users(ctx context.Context) ([]string, error) {
	users, err := s.rdb.SMembers(ctx, "users").Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers users: %w", err)
	}
	return users, nil
}
