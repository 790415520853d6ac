package services

import (
	"context"
	"encoding/json"
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"time"

	"github.com/go-redis/redis/v8"
)

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheLatestLocation(record *models.LocationRecord, expiration time.Duration) error
	GetLatestLocation(guardID uint) (*models.LocationRecord, error)
	CacheGeocodeResult(lat, lon float64, address string, expiration time.Duration) error
	GetGeocodeResult(lat, lon float64) (string, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// 1 Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// 2 Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// 3 Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// 4 CacheLatestLocation caches a guard's latest location record
func (s *RedisService) CacheLatestLocation(record *models.LocationRecord, expiration time.Duration) error {
	key := fmt.Sprintf("latest_location:%d", record.GuardID)
	return s.Set(key, record, expiration)
}

// 5 GetLatestLocation gets a guard's latest location record from cache
func (s *RedisService) GetLatestLocation(guardID uint) (*models.LocationRecord, error) {
	var record models.LocationRecord
	key := fmt.Sprintf("latest_location:%d", guardID)
	err := s.Get(key, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// 6 CacheGeocodeResult caches a reverse geocode lookup by rounded coordinates
func (s *RedisService) CacheGeocodeResult(lat, lon float64, address string, expiration time.Duration) error {
	key := fmt.Sprintf("geocode:%.4f:%.4f", lat, lon)
	return s.Client.Set(s.Ctx, key, address, expiration).Err()
}

// 7 GetGeocodeResult gets a cached reverse geocode result
func (s *RedisService) GetGeocodeResult(lat, lon float64) (string, error) {
	key := fmt.Sprintf("geocode:%.4f:%.4f", lat, lon)
	return s.Client.Get(s.Ctx, key).Result()
}
