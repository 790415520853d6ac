package utils

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// RandomInt32 生成一个安全的随机32位整数
func RandomInt32() int32 {
	var num int32
	err := binary.Read(rand.Reader, binary.BigEndian, &num)
	if err != nil {
		panic("generate random int32 failed")
	}

	return num
}

const inviteCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomInviteCode 生成指定长度的邀请码，排除易混淆字符
func RandomInviteCode(length int) string {
	code := make([]byte, length)
	max := big.NewInt(int64(len(inviteCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("generate random invite code failed")
		}
		code[i] = inviteCodeCharset[n.Int64()]
	}
	return string(code)
}
