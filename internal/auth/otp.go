package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/clientcare/support-portal/internal/persistence"
)

// ErrNoChallenge indicates no pending login challenge for the phone.
var ErrNoChallenge = errors.New("no login challenge for phone")

// ErrCodeMismatch indicates the submitted code does not match the challenge.
var ErrCodeMismatch = errors.New("code mismatch")

// ChallengeStore keeps short-lived OTP login challenges.
type ChallengeStore interface {
	Store(ctx context.Context, phone, code string, ttl time.Duration) error
	Verify(ctx context.Context, phone, code string) error
}

// RedisChallengeStore keeps bcrypt-hashed OTP codes in Redis with a TTL.
// Only the hash is stored, so a leaked key dump does not leak live codes.
type RedisChallengeStore struct {
	client *redis.Client
	cost   int
}

// NewRedisChallengeStore builds the store.
func NewRedisChallengeStore(r *persistence.Redis, cost int) *RedisChallengeStore {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &RedisChallengeStore{client: r.Client, cost: cost}
}

func challengeKey(phone string) string {
	return "otp:" + phone
}

// Store hashes the code and writes it under the phone's challenge key.
func (s *RedisChallengeStore) Store(ctx context.Context, phone, code string, ttl time.Duration) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, challengeKey(phone), string(hashed), ttl).Err()
}

// Verify compares the submitted code against the stored hash. The challenge
// is consumed on success.
func (s *RedisChallengeStore) Verify(ctx context.Context, phone, code string) error {
	hashed, err := s.client.Get(ctx, challengeKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNoChallenge
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(code)); err != nil {
		return ErrCodeMismatch
	}
	_ = s.client.Del(ctx, challengeKey(phone)).Err()
	return nil
}
