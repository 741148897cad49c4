package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"kittenboard/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - player:{identity} -> hash (identity, wins, created, updated)
// - board:wins -> sorted set, member=identity, score=win count
//
// Mutations run as Lua scripts so the hash and the sorted set always agree
// and concurrent increments never lose updates.
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

const boardKey = "board:wins"

func playerKey(id core.PlayerID) string {
	return fmt.Sprintf("player:%s", id)
}

// createPlayerScript creates the record hash and board entry only when the
// identity is unseen. Returns 1 on create, 0 when the record already exists.
var createPlayerScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	redis.call('HSET', KEYS[1], 'identity', ARGV[1], 'wins', 0, 'created', ARGV[2], 'updated', ARGV[2])
	redis.call('ZADD', KEYS[2], 0, ARGV[1])
	return 1
`)

// incrementWinScript adds one win to hash and board atomically.
// Returns the new win count, or -1 when the identity is unknown.
var incrementWinScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1
	end
	local wins = redis.call('HINCRBY', KEYS[1], 'wins', 1)
	redis.call('HSET', KEYS[1], 'updated', ARGV[2])
	redis.call('ZADD', KEYS[2], wins, ARGV[1])
	return wins
`)

// GetOrCreate idempotently creates-or-fetches the record for id.
func (s *Store) GetOrCreate(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := createPlayerScript.Run(ctx, s.client, []string{playerKey(id), boardKey}, string(id), now).Err()
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("create", err)
	}
	return s.fetchRecord(ctx, id)
}

// Get fetches the record for id without creating one.
func (s *Store) Get(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	exists, err := s.client.Exists(ctx, playerKey(id)).Result()
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("get", err)
	}
	if exists == 0 {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	return s.fetchRecord(ctx, id)
}

// IncrementWin atomically adds one win. Unknown identities fail with
// core.NotFoundError.
func (s *Store) IncrementWin(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	result, err := incrementWinScript.Run(ctx, s.client, []string{playerKey(id), boardKey}, string(id), now).Result()
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	wins, ok := result.(int64)
	if !ok {
		return core.PlayerRecord{}, core.WrapStoreError("increment", fmt.Errorf("unexpected script result %T", result))
	}
	if wins < 0 {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	rec, err := s.fetchRecord(ctx, id)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	// the script result is this increment's count; the hash may already
	// reflect later wins
	rec.Wins = wins
	return rec, nil
}

// TopN returns at most n records ordered by wins descending, identity
// ascending. Sorted-set ties are re-sorted client side: Redis orders equal
// scores by member only within a full range, and the page boundary may cut
// across a tie group, so boundary ties are fetched explicitly.
func (s *Store) TopN(ctx context.Context, n int) ([]core.PlayerRecord, error) {
	if n <= 0 {
		return nil, core.ValidationError{Reason: "top-n size must be positive"}
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, boardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, core.WrapStoreError("topn", err)
	}
	members := make(map[core.PlayerID]int64, len(entries))
	for _, e := range entries {
		id, ok := e.Member.(string)
		if !ok {
			continue
		}
		members[core.PlayerID(id)] = int64(e.Score)
	}
	if len(entries) == n {
		// pull every member tied with the lowest score on the page
		low := entries[n-1].Score
		bound := strconv.FormatFloat(low, 'f', -1, 64)
		ties, err := s.client.ZRangeByScore(ctx, boardKey, &redis.ZRangeBy{Min: bound, Max: bound}).Result()
		if err != nil {
			return nil, core.WrapStoreError("topn", err)
		}
		for _, id := range ties {
			members[core.PlayerID(id)] = int64(low)
		}
	}

	records := make([]core.PlayerRecord, 0, len(members))
	for id, wins := range members {
		rec, err := s.fetchRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		rec.Wins = wins
		records = append(records, rec)
	}
	core.SortByRank(records)
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// fetchRecord reconstructs a PlayerRecord from its hash.
func (s *Store) fetchRecord(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	fields, err := s.client.HGetAll(ctx, playerKey(id)).Result()
	if err != nil {
		return core.PlayerRecord{}, core.WrapStoreError("fetch", err)
	}
	if len(fields) == 0 {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	rec := core.PlayerRecord{Identity: id}
	if v, ok := fields["wins"]; ok {
		if wins, err := strconv.ParseInt(v, 10, 64); err == nil {
			rec.Wins = wins
		}
	}
	if v, ok := fields["created"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.Created = ts
		}
	}
	if v, ok := fields["updated"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.Updated = ts
		}
	}
	return rec, nil
}
