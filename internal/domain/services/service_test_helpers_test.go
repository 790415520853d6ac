package services

import (
	"fmt"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/infrastructure/config"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// phoneSeq 生成不重复的测试手机号
var phoneSeq uint64

// setupTestDB 创建一个内存数据库并迁移所有模型
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 每个测试一个独立的共享缓存库，避免连接池打开新连接时丢表
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Guard{},
		&models.Client{},
		&models.Site{},
		&models.Shift{},
		&models.LocationRecord{},
		&models.GeofenceEvent{},
		&models.EmergencyAlert{},
		&models.Notification{},
	)
	require.NoError(t, err)

	return db
}

// testConfig 返回测试用配置，外部依赖一律关闭
func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:          "test-secret",
		LocationRetentionDays: 90,
	}
}

// seedCompany 创建一个公司
func seedCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, Status: models.CompanyStatusActive}
	require.NoError(t, db.Create(company).Error)
	return company
}

// seedGuard 创建一个保安及其登录账号
func seedGuard(t *testing.T, db *gorm.DB, companyID uint, badge string) *models.Guard {
	t.Helper()

	user := &models.User{
		Phone:     fmt.Sprintf("138%08d", atomic.AddUint64(&phoneSeq, 1)),
		Username:  "guard-" + badge,
		Password:  "hashed",
		Role:      models.RoleGuard,
		CompanyID: companyID,
		Status:    models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	guard := &models.Guard{
		UserID:           user.ID,
		Name:             "保安" + badge,
		BadgeNumber:      badge,
		OnDuty:           true,
		EmploymentStatus: models.GuardEmploymentActive,
	}
	require.NoError(t, db.Create(guard).Error)
	guard.User = user
	return guard
}

// seedAdmin 创建一个管理员账号
func seedAdmin(t *testing.T, db *gorm.DB, companyID uint, phone string) *models.User {
	t.Helper()

	user := &models.User{
		Phone:     phone,
		Username:  "admin-" + phone,
		Password:  "hashed",
		Role:      models.RoleAdmin,
		CompanyID: companyID,
		Status:    models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedSite 创建一个站点
func seedSite(t *testing.T, db *gorm.DB, companyID uint, lat, lon, radius float64) *models.Site {
	t.Helper()

	site := &models.Site{
		Name:           "测试站点",
		Latitude:       lat,
		Longitude:      lon,
		GeofenceRadius: radius,
		CompanyID:      companyID,
	}
	require.NoError(t, db.Create(site).Error)
	return site
}
