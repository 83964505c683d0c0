package grpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/zoeyai/facefinder/pkg/imageio"
	"github.com/zoeyai/facefinder/pkg/recognize"
)

// startTestServer 在内存连接上启动服务端，返回已连接的客户端
func startTestServer(t *testing.T) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(recognize.New(recognize.WithAnnotate(false)))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	config := DefaultConfig()
	config.DialOptions = []gogrpc.DialOption{
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
	client := NewClient(config)
	if err := client.Connect("passthrough:///bufnet"); err != nil {
		t.Fatalf("连接失败: %v", err)
	}
	t.Cleanup(func() { client.Disconnect() })
	return client
}

func noisePNG(t *testing.T, w, h int, crop image.Rectangle) (full, part []byte) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 0xff
	}

	var a, b bytes.Buffer
	if _, err := imageio.Encode(&a, img, "png", 0); err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	if _, err := imageio.Encode(&b, img.SubImage(crop), "png", 0); err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	return a.Bytes(), b.Bytes()
}

func TestGetSystemInfo(t *testing.T) {
	info := GetSystemInfo()

	t.Logf("系统信息: %+v", info)

	if info.Hostname == "" {
		t.Error("Hostname 不应为空")
	}
	if info.Platform == "" {
		t.Error("Platform 不应为空")
	}
	if info.Version != Version {
		t.Errorf("Version 应为 %s, 实际为 %s", Version, info.Version)
	}
	if net.ParseIP(info.IPAddress) == nil {
		t.Errorf("IPAddress 格式错误: %s", info.IPAddress)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ServerURL != "localhost:50051" {
		t.Errorf("ServerURL 应为 localhost:50051, 实际为 %s", config.ServerURL)
	}
	if config.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout 应为 5s, 实际为 %s", config.ConnectTimeout)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(nil)

	if client.config == nil {
		t.Error("client.config 不应为 nil")
	}
	if client.IsConnected() {
		t.Error("新建的客户端不应处于连接状态")
	}

	status, url := client.GetStatus()
	if status != StatusDisconnected {
		t.Errorf("新建客户端状态应为 disconnected, 实际为 %s", status)
	}
	if url != "localhost:50051" {
		t.Errorf("ServerURL 错误: %s", url)
	}

	if _, err := client.Recognize(context.Background(), &RecognizeRequest{}); err == nil {
		t.Error("未连接时调用应返回错误")
	}
	if err := client.Disconnect(); err != nil {
		t.Errorf("未连接时断开不应报错: %v", err)
	}
}

func TestClientRecognize(t *testing.T) {
	client := startTestServer(t)

	search, pattern := noisePNG(t, 200, 150, image.Rect(42, 30, 106, 78))
	report, err := client.Recognize(context.Background(), &RecognizeRequest{
		Search:  search,
		Pattern: pattern,
		Lang:    "en",
	})
	if err != nil {
		t.Fatalf("Recognize 失败: %v", err)
	}

	t.Logf("识别结果: %+v", report.Result)

	if !report.Success || !report.Result.Found {
		t.Fatalf("应找到匹配: %+v", report)
	}
	if report.Result.X != 74 || report.Result.Y != 56 || report.Result.Confidence != 100 {
		t.Errorf("结果错误: %+v", report.Result)
	}
	if report.Message != "Face found! (100% confidence)" {
		t.Errorf("消息错误: %q", report.Message)
	}
	if report.Image != "" {
		t.Error("服务端关闭了标注，不应返回图像")
	}
}

func TestClientRecognizeInvalid(t *testing.T) {
	client := startTestServer(t)

	_, err := client.Recognize(context.Background(), &RecognizeRequest{
		Search:     []byte("plain text"),
		SearchMIME: "text/plain",
		Pattern:    []byte("x"),
	})
	if err == nil {
		t.Fatal("非图像输入应返回错误")
	}
	if st, _ := status.FromError(unwrap(err)); st.Code() != codes.InvalidArgument {
		t.Errorf("错误码应为 InvalidArgument, 实际为 %v", st.Code())
	}
}

func TestClientInfo(t *testing.T) {
	client := startTestServer(t)

	info, err := client.Info(context.Background())
	if err != nil {
		t.Fatalf("Info 失败: %v", err)
	}
	if info.Version != Version {
		t.Errorf("版本错误: %s", info.Version)
	}
	if info.System == nil || info.System.Hostname == "" {
		t.Errorf("系统信息错误: %+v", info.System)
	}
	if info.Process == nil || info.Process.Goroutines == 0 {
		t.Errorf("进程信息错误: %+v", info.Process)
	}
}

func TestClientStatusCallback(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(nil)
	go srv.Serve(lis)
	defer srv.Stop()

	config := DefaultConfig()
	config.DialOptions = []gogrpc.DialOption{
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
	client := NewClient(config)

	var statuses []ClientStatus
	client.SetStatusCallback(func(status ClientStatus) {
		statuses = append(statuses, status)
	})

	if err := client.Connect("passthrough:///bufnet"); err != nil {
		t.Fatalf("连接失败: %v", err)
	}
	if !client.IsConnected() {
		t.Error("连接后应处于连接状态")
	}
	if err := client.Disconnect(); err != nil {
		t.Fatalf("断开失败: %v", err)
	}

	want := []ClientStatus{StatusConnecting, StatusConnected, StatusDisconnected}
	if len(statuses) != len(want) {
		t.Fatalf("状态序列错误: got %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("状态[%d] 错误: got %s, want %s", i, statuses[i], want[i])
		}
	}

	logs := client.GetLogs(10)
	if len(logs) < 3 {
		t.Errorf("日志数量应至少为 3, 实际为 %d", len(logs))
	}
}

func TestClientConnectFailure(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	lis.Close()

	config := DefaultConfig()
	config.ConnectTimeout = 200 * time.Millisecond
	config.DialOptions = []gogrpc.DialOption{
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
	client := NewClient(config)

	if err := client.Connect("passthrough:///bufnet"); err == nil {
		t.Fatal("服务端不可用时连接应失败")
	}
	if client.IsConnected() {
		t.Error("连接失败后不应处于连接状态")
	}
}

func TestClientLogs(t *testing.T) {
	client := NewClient(nil)

	client.log("INFO", "Test message 1")
	client.log("WARN", "Test message 2")
	client.log("ERROR", "Test message 3")

	logs := client.GetLogs(2)
	if len(logs) != 2 {
		t.Fatalf("日志数量应为 2, 实际为 %d", len(logs))
	}
	if logs[0].Level != "WARN" || logs[1].Message != "Test message 3" {
		t.Errorf("日志内容不正确: %+v", logs)
	}
}

// unwrap 取出被 fmt.Errorf 包装的 gRPC 状态错误
func unwrap(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}

func TestClientRecognizeCorrupt(t *testing.T) {
	client := startTestServer(t)

	_, pattern := noisePNG(t, 40, 40, image.Rect(0, 0, 20, 20))
	_, err := client.Recognize(context.Background(), &RecognizeRequest{
		Search:      []byte("\x89PNG\r\n\x1a\n garbage"),
		SearchMIME:  "image/png",
		Pattern:     pattern,
		PatternMIME: "image/png",
	})
	if err == nil {
		t.Fatal("损坏的 PNG 应返回错误")
	}
	if st, _ := status.FromError(unwrap(err)); st.Code() != codes.InvalidArgument {
		t.Errorf("错误码应为 InvalidArgument, 实际为 %v", st.Code())
	}
}

func TestClientRecognizeLargeMessage(t *testing.T) {
	client := startTestServer(t)

	// 噪声 PNG 几乎不可压缩，JSON 中的 base64 超过 gRPC 默认的 4MB
	search, pattern := noisePNG(t, 1200, 1000, image.Rect(0, 0, 200, 200))
	t.Logf("搜索图大小: %d 字节", len(search))

	report, err := client.Recognize(context.Background(), &RecognizeRequest{
		Search:  search,
		Pattern: pattern,
	})
	if err != nil {
		t.Fatalf("大消息应在上限内: %v", err)
	}
	if !report.Success {
		t.Errorf("识别应成功: %+v", report)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"非图像", imageio.ErrNotImage, codes.InvalidArgument},
		{"空数据", imageio.ErrEmptyData, codes.InvalidArgument},
		{"data URL", imageio.ErrBadDataURL, codes.InvalidArgument},
		{"解码失败", fmt.Errorf("搜索图: %w", imageio.ErrDecode), codes.InvalidArgument},
		{"尺寸过大", fmt.Errorf("模板图: %w", imageio.ErrTooLarge), codes.InvalidArgument},
		{"其他", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
