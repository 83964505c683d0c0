package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.HTTPAddr != ":8080" {
		t.Errorf("默认 HTTPAddr 应为 :8080, 实际为 %s", config.HTTPAddr)
	}
	if config.GRPCAddr != ":50051" {
		t.Errorf("默认 GRPCAddr 应为 :50051, 实际为 %s", config.GRPCAddr)
	}
	if config.Language != "pl" {
		t.Errorf("默认语言应为 pl, 实际为 %s", config.Language)
	}
	if !config.Annotate {
		t.Error("默认 Annotate 应为 true")
	}
	if config.Label {
		t.Error("默认 Label 应为 false")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("默认配置应合法: %v", err)
	}
	if config.MaxUploadBytes() != 10<<20 {
		t.Errorf("MaxUploadBytes 错误: %d", config.MaxUploadBytes())
	}

	t.Logf("默认配置: %+v", config)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"地址都为空", func(c *Config) { c.HTTPAddr, c.GRPCAddr = "", "" }, "不能同时为空"},
		{"上传上限为 0", func(c *Config) { c.MaxUploadMB = 0 }, "max_upload_mb"},
		{"上传上限过大", func(c *Config) { c.MaxUploadMB = 500 }, "max_upload_mb"},
		{"缩略图为负", func(c *Config) { c.ThumbMax = -1 }, "thumb_max"},
		{"未知日志级别", func(c *Config) { c.LogLevel = "verbose" }, "日志级别"},
		{"只有 gRPC", func(c *Config) { c.HTTPAddr = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("不应返回错误: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("错误应包含 %q, 实际为 %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9000")
	t.Setenv(EnvLang, "en")
	t.Setenv(EnvGRPCAddr, "")

	c := DefaultConfig()
	c.ApplyEnv()

	if c.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("HTTPAddr 应被覆盖, 实际为 %s", c.HTTPAddr)
	}
	if c.Language != "en" {
		t.Errorf("Language 应被覆盖, 实际为 %s", c.Language)
	}
	if c.GRPCAddr != ":50051" {
		t.Errorf("空环境变量不应覆盖 GRPCAddr, 实际为 %s", c.GRPCAddr)
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	// 使用临时目录
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	config := &Config{
		HTTPAddr:    ":9090",
		GRPCAddr:    ":6000",
		ServerURL:   "remote:50051",
		Language:    "zh",
		LogLevel:    "debug",
		MaxUploadMB: 20,
		ThumbMax:    800,
		Annotate:    false,
		Label:       true,
	}

	if err := manager.Save(config); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if *loaded != *config {
		t.Errorf("配置不匹配: 期望 %+v, 实际 %+v", config, loaded)
	}

	t.Logf("加载的配置: %+v", loaded)
}

func TestManagerLoadPartial(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	// 只写部分字段，其余应保留默认值
	err := os.WriteFile(filepath.Join(tempDir, "config.json"), []byte(`{"language":"en","label":true}`), 0600)
	if err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if config.Language != "en" {
		t.Errorf("Language 应为 en, 实际为 %s", config.Language)
	}
	if !config.Label {
		t.Error("Label 应从文件读取为 true")
	}
	if config.HTTPAddr != ":8080" || config.MaxUploadMB != 10 || !config.Annotate {
		t.Errorf("缺少的字段应保留默认值: %+v", config)
	}
}

func TestManagerClear(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if err := manager.Save(DefaultConfig()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Fatal("保存后配置文件应存在")
	}

	if err := manager.Clear(); err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}
	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}

	// 清除不存在的文件不应报错
	if err := manager.Clear(); err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
}

func TestManagerLoadNonExistent(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载不存在的配置不应报错: %v", err)
	}
	if *config != *DefaultConfig() {
		t.Errorf("应返回默认配置: %+v", config)
	}
}

func TestManagerLoadCorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	configFile := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configFile, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	// 加载损坏的配置应返回默认值和错误
	config, err := manager.Load()
	if err == nil {
		t.Error("加载损坏的配置应返回错误")
	}
	if config == nil {
		t.Error("即使出错也应返回默认配置")
	}

	t.Logf("加载损坏配置的错误: %v", err)
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.GetConfigDir() != tempDir {
		t.Errorf("GetConfigDir 应为 %s", tempDir)
	}

	expectedFile := filepath.Join(tempDir, "config.json")
	if manager.GetConfigFile() != expectedFile {
		t.Errorf("GetConfigFile 应为 %s", expectedFile)
	}
}

func TestDefaultManager(t *testing.T) {
	manager := GetDefaultManager()
	if manager == nil {
		t.Fatal("GetDefaultManager 返回 nil")
	}

	homeDir, _ := os.UserHomeDir()
	expectedDir := filepath.Join(homeDir, ".facefinder")
	if manager.GetConfigDir() != expectedDir {
		t.Errorf("默认配置目录应为 %s, 实际为 %s", expectedDir, manager.GetConfigDir())
	}
}
