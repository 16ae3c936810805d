package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/vfxbridge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix used unless WithPrefix says otherwise.
const DefaultPrefix = "vfxbridge:"

// Store implements ports.AssetStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for assets.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying client, e.g. to build a Locker sharing it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(path string) string {
	return s.prefix + "asset:" + path
}

func (s *Store) indexKey() string {
	return s.prefix + "assets"
}

// Save writes the asset bytes and records the path in the index.
func (s *Store) Save(ctx context.Context, path string, data []byte) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(path), data, s.ttl)

	// Score = expiry; assets without a TTL never leave the index.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: path})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load returns the asset bytes.
func (s *Store) Load(ctx context.Context, path string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Delete removes the asset.
func (s *Store) Delete(ctx context.Context, path string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(path))
	pipe.ZRem(ctx, s.indexKey(), path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the stored paths, sorted. Expired entries are pruned from
// the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired assets: %w", err)
	}
	paths, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
