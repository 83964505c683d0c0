package process

import (
	"os"
	"testing"
)

func TestSelf(t *testing.T) {
	stats, err := Self()
	if err != nil {
		t.Fatalf("Self 失败: %v", err)
	}

	t.Logf("进程: %s pid=%d rss=%d cpu=%.1f%% threads=%d goroutines=%d",
		stats.Name, stats.PID, stats.RSS, stats.CPUPercent, stats.Threads, stats.Goroutines)

	if stats.PID != os.Getpid() {
		t.Errorf("PID 错误: got %d, want %d", stats.PID, os.Getpid())
	}
	if stats.Goroutines < 1 {
		t.Errorf("goroutine 数错误: %d", stats.Goroutines)
	}
	if stats.RSS == 0 {
		t.Error("RSS 不应为 0")
	}
}

func TestIsRunning(t *testing.T) {
	if !IsRunning(os.Getpid()) {
		t.Error("当前进程应在运行")
	}
	if IsRunning(-1) {
		t.Error("PID -1 不应在运行")
	}
}
