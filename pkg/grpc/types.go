package grpc

import (
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	gogrpc "google.golang.org/grpc"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// Version 版本号
const Version = vision.Version

// ClientStatus 客户端状态
type ClientStatus string

const (
	StatusDisconnected ClientStatus = "disconnected"
	StatusConnecting   ClientStatus = "connecting"
	StatusConnected    ClientStatus = "connected"
)

// SystemInfo 系统信息
type SystemInfo struct {
	Hostname  string `json:"hostname"`
	Platform  string `json:"platform"`
	OSVersion string `json:"os_version"`
	Version   string `json:"version"`
	IPAddress string `json:"ip_address"`
	NumCPU    int    `json:"num_cpu"`
}

// GetSystemInfo 获取当前系统信息
func GetSystemInfo() *SystemInfo {
	hostname, _ := os.Hostname()

	platform := strings.ToUpper(runtime.GOOS)
	if platform == "DARWIN" {
		platform = "MACOS"
	}

	return &SystemInfo{
		Hostname:  hostname,
		Platform:  platform,
		OSVersion: runtime.GOOS + "/" + runtime.GOARCH,
		Version:   Version,
		IPAddress: getLocalIP(),
		NumCPU:    runtime.NumCPU(),
	}
}

// getLocalIP 返回第一个非回环 IPv4 地址，找不到时返回 127.0.0.1
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "127.0.0.1"
}

// ClientConfig 客户端配置
type ClientConfig struct {
	// ServerURL 服务端地址 (host:port 或 gRPC target)
	ServerURL string
	// ConnectTimeout 连接时健康检查的超时
	ConnectTimeout time.Duration
	// CallTimeout 单次调用超时，0 表示只使用调用方的 context
	CallTimeout time.Duration
	// MaxMessageBytes 请求消息上限，0 表示 DefaultMaxMessageBytes
	MaxMessageBytes int
	// DialOptions 额外的拨号选项
	DialOptions []gogrpc.DialOption
}

// DefaultMaxMessageBytes 默认消息上限，与 HTTP 上传上限一致
const DefaultMaxMessageBytes = 10 << 20

// responseLimit 响应消息上限
func responseLimit(maxBytes int) int {
	return maxBytes * 2
}

// DefaultConfig 默认配置
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL:       "localhost:50051",
		ConnectTimeout:  5 * time.Second,
		CallTimeout:     30 * time.Second,
		MaxMessageBytes: DefaultMaxMessageBytes,
	}
}

// StatusCallback 状态变更回调函数
type StatusCallback func(status ClientStatus)

// LogEntry 日志条目
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}
