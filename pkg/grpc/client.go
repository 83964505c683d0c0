// Package grpc 提供 Matcher gRPC 服务端和客户端
//
// 消息使用 JSON 编码（content-subtype "json"），服务端同时注册标准的
// grpc.health.v1 健康检查服务。
package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/recognize"
)

// maxLogEntries 客户端保留的日志条数
const maxLogEntries = 500

// Client Matcher gRPC 客户端
type Client struct {
	config *ClientConfig
	conn   *gogrpc.ClientConn

	isConnected    bool
	onStatusChange StatusCallback

	logs   []LogEntry
	logsMu sync.Mutex

	mu sync.RWMutex
}

// NewClient 创建新的客户端
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		logs:   make([]LogEntry, 0, maxLogEntries),
	}
}

// Connect 连接到服务端，并通过健康检查确认服务可用
//
// 健康检查走默认的 protobuf 编码，Matcher 调用显式指定 JSON 编码。
func (c *Client) Connect(serverURL string) error {
	c.mu.Lock()
	if c.isConnected {
		c.mu.Unlock()
		return nil
	}
	if serverURL != "" {
		c.config.ServerURL = serverURL
	}
	target := c.config.ServerURL
	timeout := c.config.ConnectTimeout
	maxBytes := c.config.MaxMessageBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxMessageBytes
	}
	opts := append([]gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithDefaultCallOptions(
			gogrpc.MaxCallSendMsgSize(maxBytes),
			gogrpc.MaxCallRecvMsgSize(responseLimit(maxBytes)),
		),
	}, c.config.DialOptions...)
	c.mu.Unlock()

	c.log("INFO", fmt.Sprintf("Connecting to %s...", target))
	c.setStatus(StatusConnecting)

	conn, err := gogrpc.NewClient(target, opts...)
	if err != nil {
		c.log("ERROR", fmt.Sprintf("gRPC client creation failed: %v", err))
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("创建连接失败: %w", err)
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		conn.Close()
		c.log("ERROR", fmt.Sprintf("Health check failed: %v", err))
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("连接失败: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		conn.Close()
		c.log("ERROR", fmt.Sprintf("Service not serving: %s", resp.GetStatus()))
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("服务不可用: %s", resp.GetStatus())
	}

	c.mu.Lock()
	c.conn = conn
	c.isConnected = true
	c.mu.Unlock()

	c.log("INFO", fmt.Sprintf("Connected to %s", target))
	c.setStatus(StatusConnected)
	return nil
}

// Recognize 调用远程识别
func (c *Client) Recognize(ctx context.Context, req *RecognizeRequest) (*recognize.Report, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withCallTimeout(ctx)
	defer cancel()

	start := time.Now()
	report := new(recognize.Report)
	if err := conn.Invoke(ctx, MethodRecognize, req, report, gogrpc.CallContentSubtype(CodecName)); err != nil {
		c.log("ERROR", fmt.Sprintf("Recognize failed: %v", err))
		return nil, fmt.Errorf("远程识别失败: %w", err)
	}
	c.log("DEBUG", fmt.Sprintf("Recognize done in %s: found=%v", time.Since(start).Round(time.Millisecond), report.Result.Found))
	return report, nil
}

// Info 获取远程服务信息
func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withCallTimeout(ctx)
	defer cancel()

	resp := new(InfoResponse)
	if err := conn.Invoke(ctx, MethodInfo, &InfoRequest{}, resp, gogrpc.CallContentSubtype(CodecName)); err != nil {
		return nil, fmt.Errorf("获取服务信息失败: %w", err)
	}
	return resp, nil
}

// Disconnect 断开连接
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if !c.isConnected {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.conn = nil
	c.isConnected = false
	c.mu.Unlock()

	err := conn.Close()
	c.log("INFO", "Disconnected")
	c.setStatus(StatusDisconnected)
	if err != nil {
		return fmt.Errorf("关闭连接失败: %w", err)
	}
	return nil
}

// GetStatus 获取当前状态和服务端地址
func (c *Client) GetStatus() (ClientStatus, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := StatusDisconnected
	if c.isConnected {
		status = StatusConnected
	}
	return status, c.config.ServerURL
}

// IsConnected 检查是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// SetStatusCallback 设置状态变更回调
func (c *Client) SetStatusCallback(callback StatusCallback) {
	c.mu.Lock()
	c.onStatusChange = callback
	c.mu.Unlock()
}

func (c *Client) connection() (*gogrpc.ClientConn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.isConnected || c.conn == nil {
		return nil, fmt.Errorf("未连接到服务端")
	}
	return c.conn, nil
}

func (c *Client) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.CallTimeout)
}

// setStatus 设置状态并触发回调
func (c *Client) setStatus(status ClientStatus) {
	c.mu.RLock()
	callback := c.onStatusChange
	c.mu.RUnlock()

	if callback != nil {
		callback(status)
	}
}

// log 记录日志，同时写入全局 logger
func (c *Client) log(level, message string) {
	entry := LogEntry{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Level:     level,
		Message:   message,
	}

	c.logsMu.Lock()
	c.logs = append(c.logs, entry)
	if len(c.logs) > maxLogEntries {
		c.logs = c.logs[len(c.logs)-maxLogEntries:]
	}
	c.logsMu.Unlock()

	switch logger.ParseLevel(level) {
	case logger.DEBUG:
		logger.Debug("[grpc] %s", message)
	case logger.WARN:
		logger.Warn("[grpc] %s", message)
	case logger.ERROR:
		logger.Error("[grpc] %s", message)
	default:
		logger.Info("[grpc] %s", message)
	}
}

// GetLogs 获取最近的日志
func (c *Client) GetLogs(limit int) []LogEntry {
	c.logsMu.Lock()
	defer c.logsMu.Unlock()

	if limit <= 0 || limit > len(c.logs) {
		limit = len(c.logs)
	}

	result := make([]LogEntry, limit)
	copy(result, c.logs[len(c.logs)-limit:])
	return result
}
