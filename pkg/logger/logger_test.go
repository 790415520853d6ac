package logger

import "testing"

func TestLogBeforeSetup(t *testing.T) {
	// 未调用SetupLogger时日志落到标准错误，不应该崩溃
	Info("初始化前信息日志 %d", 1)
	Warning("初始化前警告日志 %d", 2)
	Error("初始化前错误日志 %d", 3)
}
