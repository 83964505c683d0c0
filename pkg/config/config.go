// Package config 管理 facefinder 的 JSON 配置文件
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// 环境变量名
const (
	EnvHTTPAddr = "FACEFINDER_HTTP_ADDR"
	EnvGRPCAddr = "FACEFINDER_GRPC_ADDR"
	EnvLang     = "FACEFINDER_LANG"
	EnvLogLevel = "FACEFINDER_LOG_LEVEL"
)

// Config 运行配置
type Config struct {
	HTTPAddr    string `json:"http_addr"`
	GRPCAddr    string `json:"grpc_addr"`
	ServerURL   string `json:"server_url"` // 远程 gRPC 服务地址，为空则本地识别
	Language    string `json:"language"`
	LogLevel    string `json:"log_level"`
	LogFile     string `json:"log_file"`
	MaxUploadMB int    `json:"max_upload_mb"`
	ThumbMax    int    `json:"thumb_max"` // 标注图最大边长，0 表示原尺寸
	Annotate    bool   `json:"annotate"`
	Label       bool   `json:"label"` // 服务返回的标注图上是否绘制消息文字
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    ":8080",
		GRPCAddr:    ":50051",
		ServerURL:   "",
		Language:    "pl",
		LogLevel:    "info",
		LogFile:     "",
		MaxUploadMB: 10,
		ThumbMax:    0,
		Annotate:    true,
		Label:       false,
	}
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" && c.GRPCAddr == "" {
		errs = append(errs, errors.New("http_addr 和 grpc_addr 不能同时为空"))
	}
	if c.MaxUploadMB <= 0 || c.MaxUploadMB > 100 {
		errs = append(errs, fmt.Errorf("max_upload_mb 必须在 1-100 之间: %d", c.MaxUploadMB))
	}
	if c.ThumbMax < 0 {
		errs = append(errs, fmt.Errorf("thumb_max 不能为负数: %d", c.ThumbMax))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("未知的日志级别: %s", c.LogLevel))
	}
	return errors.Join(errs...)
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv() {
	c.HTTPAddr = getEnv(EnvHTTPAddr, c.HTTPAddr)
	c.GRPCAddr = getEnv(EnvGRPCAddr, c.GRPCAddr)
	c.Language = getEnv(EnvLang, c.Language)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// MaxUploadBytes 上传大小上限（字节）
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".facefinder"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置
//
// 文件不存在时返回默认配置；文件中缺少的字段保留默认值。
func (m *Manager) Load() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置，并应用环境变量
func Load() (*Config, error) {
	config, err := defaultManager.Load()
	config.ApplyEnv()
	return config, err
}

// Save 使用默认管理器保存配置
func Save(config *Config) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
