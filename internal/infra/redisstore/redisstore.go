// Package redisstore is the optional persistence backend for users who
// already keep a local redis running. Keys live under a "foundation:" prefix.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/foundation-app/foundation/internal/domain"
)

const (
	// Prefix namespaces every key this store writes.
	Prefix = "foundation:"

	journalKey = Prefix + "journal"
)

// Store implements domain.KVStore and domain.Journal on redis.
type Store struct {
	client       *redis.Client
	journalLimit int
}

// Open parses url (redis://host:port/db), connects, and pings.
func Open(ctx context.Context, url string, journalLimit int) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client, journalLimit: journalLimit}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.client.Close() }

// Key returns the namespaced redis key for a logical store key.
func Key(name string) string { return Prefix + "kv:" + name }

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// Put stores value under key with no expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Append pushes an entry to the head of the journal list and trims it.
func (s *Store) Append(ctx context.Context, e domain.JournalEntry) error {
	n, err := s.client.Incr(ctx, journalKey+":seq").Result()
	if err != nil {
		return fmt.Errorf("journal seq: %w", err)
	}
	e.ID = n
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, journalKey, data)
	if s.journalLimit > 0 {
		pipe.LTrim(ctx, journalKey, 0, int64(s.journalLimit-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit below one
// returns nothing. Entries that fail to decode are skipped.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, journalKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	out := make([]domain.JournalEntry, 0, len(raw))
	for _, r := range raw {
		var e domain.JournalEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
