// Package process 提供进程状态查询，用于健康检查
package process

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Stats 进程状态
type Stats struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	RSS        uint64  `json:"rss"`        // 常驻内存（字节）
	CPUPercent float64 `json:"cpu"`        // 自启动以来的平均 CPU 占用
	Threads    int32   `json:"threads"`    // 系统线程数
	Goroutines int     `json:"goroutines"` // 仅当前进程有效
	UptimeSec  float64 `json:"uptime_sec"` // 运行时长（秒）
}

// Self 获取当前进程状态
func Self() (*Stats, error) {
	stats, err := Get(os.Getpid())
	if err != nil {
		return nil, err
	}
	stats.Goroutines = runtime.NumGoroutine()
	return stats, nil
}

// Get 按 PID 获取进程状态
//
// 个别字段读取失败时保留零值，只有进程不存在才返回错误。
func Get(pid int) (*Stats, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d: %w", pid, err)
	}

	stats := &Stats{PID: pid}
	stats.Name, _ = proc.Name()
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSS = mem.RSS
	}
	stats.CPUPercent, _ = proc.CPUPercent()
	stats.Threads, _ = proc.NumThreads()
	if created, err := proc.CreateTime(); err == nil && created > 0 {
		stats.UptimeSec = time.Since(time.UnixMilli(created)).Seconds()
	}
	return stats, nil
}

// IsRunning 检查进程是否正在运行
func IsRunning(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}
