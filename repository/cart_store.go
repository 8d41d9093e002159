package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mars3lo-orders/cart"
)

const cartKeyPrefix = "cart:"

// RedisCartStore keeps each session's cart as a JSON value with a sliding TTL
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore connects to redisURL and checks the connection with a ping
func NewRedisCartStore(redisURL string, ttl time.Duration) (*RedisCartStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisCartStoreWithClient(client, ttl), nil
}

// NewRedisCartStoreWithClient wraps an existing client
func NewRedisCartStoreWithClient(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

var _ CartStoreInterface = (*RedisCartStore)(nil)

// Close closes the underlying client
func (s *RedisCartStore) Close() error {
	return s.client.Close()
}

// Load returns the stored cart, or an empty cart when the session has none
func (s *RedisCartStore) Load(ctx context.Context, sessionID string) (cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Cart{Lines: []cart.Line{}}, nil
	}
	if err != nil {
		return cart.Cart{}, persistenceError("load cart", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return cart.Cart{}, fmt.Errorf("failed to decode cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = []cart.Line{}
	}
	return c, nil
}

// Save stores the cart and refreshes its TTL
func (s *RedisCartStore) Save(ctx context.Context, sessionID string, c cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return persistenceError("save cart", err)
	}
	return nil
}

// Delete drops the session's cart
func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return persistenceError("delete cart", err)
	}
	return nil
}

// MemoryCartStore keeps carts in process memory. Used when no Redis is configured.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

// NewMemoryCartStore creates an empty in-memory store
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]cart.Cart)}
}

var _ CartStoreInterface = (*MemoryCartStore)(nil)

func (s *MemoryCartStore) Load(_ context.Context, sessionID string) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return cart.Cart{Lines: []cart.Line{}}, nil
	}
	lines := make([]cart.Line, len(c.Lines))
	copy(lines, c.Lines)
	return cart.Cart{Lines: lines}, nil
}

func (s *MemoryCartStore) Save(_ context.Context, sessionID string, c cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]cart.Line, len(c.Lines))
	copy(lines, c.Lines)
	s.carts[sessionID] = cart.Cart{Lines: lines}
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}
