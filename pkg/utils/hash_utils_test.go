package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret@123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret@123", hash)

	assert.True(t, CheckPasswordHash("Secret@123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestRandomInviteCode(t *testing.T) {
	code := RandomInviteCode(8)
	assert.Len(t, code, 8)

	// 不包含易混淆字符
	for _, ch := range code {
		assert.NotContains(t, "01IO", string(ch))
	}
}
