package services

import (
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/pkg/utils"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtractClaims(t *testing.T) {
	db := setupTestDB(t)
	service := NewJWTService(testConfig(), db)

	token, err := service.GenerateToken(42, string(models.RoleAdmin), 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
	assert.Equal(t, uint(7), claims.CompanyID)
}

func TestExtractClaimsRejectsTamperedToken(t *testing.T) {
	db := setupTestDB(t)
	service := NewJWTService(testConfig(), db)

	_, err := service.ExtractClaims("invalid.token.here")
	require.Error(t, err)

	// 用不同密钥签发的令牌不被接受
	otherCfg := testConfig()
	otherCfg.JWTSecretKey = "another-secret"
	other := NewJWTService(otherCfg, db)
	token, err := other.GenerateToken(1, string(models.RoleGuard), 1)
	require.NoError(t, err)

	_, err = service.ExtractClaims(token)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	service := NewJWTService(testConfig(), db)

	hashed, err := utils.HashPassword("Pass@1234")
	require.NoError(t, err)

	user := &models.User{
		Phone:     "13812340001",
		Username:  "login-test",
		Password:  hashed,
		Role:      models.RoleAdmin,
		CompanyID: 3,
		Status:    models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	t.Run("正确凭证签发令牌", func(t *testing.T) {
		token, loggedIn, err := service.Login("13812340001", "Pass@1234")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, loggedIn.ID)

		claims, err := service.ExtractClaims(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, uint(3), claims.CompanyID)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, _, err := service.Login("13812340001", "wrong")
		require.Error(t, err)
		assert.Equal(t, "用户密码错误", err.Error())
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, _, err := service.Login("13899999999", "Pass@1234")
		require.Error(t, err)
		assert.Equal(t, "用户不存在", err.Error())
	})

	t.Run("停用账号不能登录", func(t *testing.T) {
		require.NoError(t, db.Model(user).Update("status", models.UserStatusDisabled).Error)
		_, _, err := service.Login("13812340001", "Pass@1234")
		require.Error(t, err)
		assert.Equal(t, "用户已被停用", err.Error())
	})
}
