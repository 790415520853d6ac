package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	t.Run("相同坐标距离为零", func(t *testing.T) {
		d := HaversineDistance(31.2304, 121.4737, 31.2304, 121.4737)
		assert.Equal(t, 0.0, d)
	})

	t.Run("距离计算满足对称性", func(t *testing.T) {
		d1 := HaversineDistance(31.2304, 121.4737, 39.9042, 116.4074)
		d2 := HaversineDistance(39.9042, 116.4074, 31.2304, 121.4737)
		assert.InDelta(t, d1, d2, 1e-6)
	})

	t.Run("上海到北京约1067公里", func(t *testing.T) {
		d := HaversineDistance(31.2304, 121.4737, 39.9042, 116.4074)
		assert.InDelta(t, 1067000, d, 5000)
	})

	t.Run("短距离精度", func(t *testing.T) {
		// 纬度方向0.001度约为111米
		d := HaversineDistance(31.0, 121.0, 31.001, 121.0)
		assert.InDelta(t, 111.2, d, 1.0)
	})
}

func TestEvaluateGeofence(t *testing.T) {
	t.Run("圆心处位于围栏内", func(t *testing.T) {
		distance, inside := EvaluateGeofence(31.0, 121.0, 31.0, 121.0, 100)
		assert.Equal(t, 0.0, distance)
		assert.True(t, inside)
	})

	t.Run("边界上的点算在围栏内", func(t *testing.T) {
		// 约111米外，半径正好覆盖到边界
		distance, inside := EvaluateGeofence(31.001, 121.0, 31.0, 121.0, 112)
		assert.True(t, inside, "距离 %.2f 应不大于半径 112", distance)
	})

	t.Run("半径之外的点在围栏外", func(t *testing.T) {
		distance, inside := EvaluateGeofence(31.001, 121.0, 31.0, 121.0, 100)
		assert.Greater(t, distance, 100.0)
		assert.False(t, inside)
	})
}
