package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"ipatrol-http-service/internal/infrastructure/config"
	"net/http"
	"time"
)

// InterfaceGeocodeService defines the reverse geocoding service interface
type InterfaceGeocodeService interface {
	ReverseGeocode(lat, lon float64) (string, error)
}

// GeocodeService handles reverse geocoding for alert location snapshots
type GeocodeService struct {
	Config *config.Config
	Redis  InterfaceRedisService
	Client *http.Client
}

// GeocodeAPIResponse represents the response from the geocode API
type GeocodeAPIResponse struct {
	Status  string `json:"status"`
	Address string `json:"display_name"`
	Error   string `json:"error,omitempty"`
}

// NewGeocodeService creates a new geocode service
func NewGeocodeService(cfg *config.Config, redis InterfaceRedisService) InterfaceGeocodeService {
	return &GeocodeService{
		Config: cfg,
		Redis:  redis,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// ReverseGeocode 将经纬度解析为地址描述，结果缓存24小时
func (s *GeocodeService) ReverseGeocode(lat, lon float64) (string, error) {
	if !s.Config.GeocodeEnabled {
		return "", errors.New("逆地理编码未启用")
	}

	// 首先尝试从缓存获取
	if s.Redis != nil {
		if address, err := s.Redis.GetGeocodeResult(lat, lon); err == nil && address != "" {
			return address, nil
		}
	}

	url := fmt.Sprintf("%s?lat=%f&lon=%f&format=json", s.Config.GeocodeAPIURL, lat, lon)

	resp, err := s.Client.Get(url)
	if err != nil {
		return "", fmt.Errorf("error fetching geocode data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode API returned status code %d", resp.StatusCode)
	}

	var apiResp GeocodeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("error decoding geocode response: %w", err)
	}

	if apiResp.Error != "" {
		return "", fmt.Errorf("geocode API error: %s", apiResp.Error)
	}

	if s.Redis != nil {
		_ = s.Redis.CacheGeocodeResult(lat, lon, apiResp.Address, 24*time.Hour)
	}

	return apiResp.Address, nil
}
