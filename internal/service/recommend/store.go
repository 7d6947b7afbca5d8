package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoStoredResult is returned when no recommendation is stored for a key.
var ErrNoStoredResult = errors.New("recommend: no stored result")

const (
	storePrefix     = "agrivisor:reco:"
	defaultStoreTTL = 24 * time.Hour
)

// ResultStore persists recommendation results in Redis so repeated requests
// for an unchanged farm skip scoring across restarts. A nil client disables
// persistence: Get always misses and Save is a no-op.
type ResultStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewResultStore creates a store on the shared Redis client.
func NewResultStore(client redis.UniversalClient) *ResultStore {
	return &ResultStore{client: client, ttl: defaultStoreTTL}
}

// Get fetches the stored recommendation for a key.
func (s *ResultStore) Get(ctx context.Context, key string) (*Recommendation, error) {
	if s == nil || s.client == nil {
		return nil, ErrNoStoredResult
	}

	data, err := s.client.Get(ctx, storePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoStoredResult
		}
		return nil, err
	}

	var rec Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save stores a recommendation under the key with the store TTL.
func (s *ResultStore) Save(ctx context.Context, key string, rec *Recommendation) error {
	if s == nil || s.client == nil {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, storePrefix+key, data, s.ttl).Err()
}
