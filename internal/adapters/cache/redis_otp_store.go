package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/ports"
	"github.com/redis/go-redis/v9"
)

// RedisOTPChallengeStore stores OTP-pending markers in Redis. The TTL does
// the expiry work; readers still check ExpiresAt to stay correct under a
// lagging eviction.
type RedisOTPChallengeStore struct {
	client *redis.Client
}

func NewRedisOTPChallengeStore(client *redis.Client) *RedisOTPChallengeStore {
	return &RedisOTPChallengeStore{client: client}
}

func (s *RedisOTPChallengeStore) Put(ctx context.Context, userID uuid.UUID, challenge ports.OTPChallenge, ttl time.Duration) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "auth:otp:"+userID.String(), raw, ttl).Err()
}

func (s *RedisOTPChallengeStore) Get(ctx context.Context, userID uuid.UUID) (*ports.OTPChallenge, error) {
	raw, err := s.client.Get(ctx, "auth:otp:"+userID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out ports.OTPChallenge
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisOTPChallengeStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, "auth:otp:"+userID.String()).Err()
}
