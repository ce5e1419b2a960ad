package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"newsrag/config"
	"newsrag/types"

	"github.com/redis/go-redis/v9"
)

// SessionStore describes the session persistence the chat service needs.
type SessionStore interface {
	History(ctx context.Context, sessionID string) ([]types.ConversationMessage, error)
	Append(ctx context.Context, sessionID string, messages ...types.ConversationMessage) error
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	MessageCount(ctx context.Context, sessionID string) (int64, error)
	Close() error
}

// RedisSessionConfig configures the Redis-backed session store.
type RedisSessionConfig struct {
	Addr       string // e.g. localhost:6379
	Password   string
	DB         int
	TTL        time.Duration // session inactivity window
	MaxHistory int           // history list length cap
}

// NewRedisSessionConfigFromEnv builds a config from REDIS_ADDR, REDIS_PASS,
// REDIS_DB, SESSION_TTL_SECONDS, SESSION_MAX_HISTORY.
func NewRedisSessionConfigFromEnv() RedisSessionConfig {
	cfg := RedisSessionConfig{
		Addr:       os.Getenv("REDIS_ADDR"),
		Password:   os.Getenv("REDIS_PASS"),
		TTL:        config.SessionTTL,
		MaxHistory: config.MaxHistoryLength,
	}
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if v, err := strconv.Atoi(db); err == nil {
			cfg.DB = v
		}
	}
	if t := os.Getenv("SESSION_TTL_SECONDS"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			cfg.TTL = time.Duration(secs) * time.Second
		}
	}
	if m := os.Getenv("SESSION_MAX_HISTORY"); m != "" {
		if v, err := strconv.Atoi(m); err == nil && v > 0 {
			cfg.MaxHistory = v
		}
	}
	return cfg
}

// RedisSessionStore keeps each session's history as a Redis list and its
// counters as a hash, both under the session's TTL. History entries are
// JSON-encoded ConversationMessages; appends trim the list to MaxHistory so
// long sessions stay bounded.
type RedisSessionStore struct {
	client     *redis.Client
	ttl        time.Duration
	maxHistory int
}

// NewRedisSessionStore connects to Redis and verifies connectivity.
func NewRedisSessionStore(cfg RedisSessionConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.SessionTTL
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = config.MaxHistoryLength
	}

	return &RedisSessionStore{client: client, ttl: ttl, maxHistory: maxHistory}, nil
}

func historyKey(sessionID string) string { return "session:" + sessionID + ":history" }
func metaKey(sessionID string) string    { return "session:" + sessionID + ":meta" }

// History returns the session's messages in chronological order. A missing
// session yields an empty history, not an error.
func (s *RedisSessionStore) History(ctx context.Context, sessionID string) ([]types.ConversationMessage, error) {
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", sessionID, err)
	}

	messages := make([]types.ConversationMessage, 0, len(raw))
	for _, entry := range raw {
		var msg types.ConversationMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			// Skip unparseable entries rather than failing the session.
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Append pushes messages onto the history list, trims to the cap, bumps the
// per-role counters, and refreshes the session TTL, all in one pipeline.
func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, messages ...types.ConversationMessage) error {
	if len(messages) == 0 {
		return nil
	}

	encoded := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		encoded = append(encoded, b)
	}

	hKey := historyKey(sessionID)
	mKey := metaKey(sessionID)

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, hKey, encoded...)
	pipe.LTrim(ctx, hKey, int64(-s.maxHistory), -1)
	for _, msg := range messages {
		pipe.HIncrBy(ctx, mKey, "count:"+string(msg.Role), 1)
	}
	pipe.HSet(ctx, mKey, "last_active", time.Now().Format(time.RFC3339))
	pipe.Expire(ctx, hKey, s.ttl)
	pipe.Expire(ctx, mKey, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes the session's history and metadata.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, historyKey(sessionID), metaKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Exists reports whether the session has any stored state.
func (s *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, historyKey(sessionID), metaKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MessageCount returns the total messages recorded for the session.
func (s *RedisSessionStore) MessageCount(ctx context.Context, sessionID string) (int64, error) {
	counts, err := s.client.HGetAll(ctx, metaKey(sessionID)).Result()
	if err != nil {
		return 0, err
	}
	var total int64
	for field, value := range counts {
		if len(field) > 6 && field[:6] == "count:" {
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				total += v
			}
		}
	}
	return total, nil
}

// Close releases the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
