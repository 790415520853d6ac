package services

import "math"

// earthRadiusMeters 地球平均半径，单位米
const earthRadiusMeters = 6371000.0

// GeofenceResult 单个围栏的判定结果
type GeofenceResult struct {
	ShiftID  uint    `json:"shift_id"`
	SiteID   uint    `json:"site_id"`
	SiteName string  `json:"site_name"`
	Distance float64 `json:"distance"` // 距围栏中心的距离，单位米
	Radius   float64 `json:"radius"`
	Inside   bool    `json:"inside"`
}

// HaversineDistance 计算两个经纬度坐标之间的大圆距离，单位米
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// EvaluateGeofence 判断坐标是否落在围栏内，距离等于半径时视为在围栏内
func EvaluateGeofence(lat, lon, centerLat, centerLon, radius float64) (float64, bool) {
	distance := HaversineDistance(lat, lon, centerLat, centerLon)
	return distance, distance <= radius
}
