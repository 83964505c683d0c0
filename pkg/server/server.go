// Package server 提供识别服务的 HTTP API 和 WebSocket 端点
//
// 路由:
//
//	POST /api/recognize   multipart 表单上传 pattern / search 两个图像文件
//	GET  /health          服务与进程状态
//	GET  /ws/recognize    WebSocket，每条 JSON 消息识别一次
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/recognize"
)

// Options 服务选项
type Options struct {
	Annotate       bool   // 默认是否返回标注图
	Label          bool   // 标注图上是否绘制消息文字
	ThumbMax       int    // 标注图最大边长
	MaxUploadBytes int64  // 单次请求上限
	DefaultLang    string // 请求未指定语言时使用
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		Annotate:       true,
		MaxUploadBytes: 10 << 20,
		DefaultLang:    "pl",
	}
}

// Server HTTP 服务
type Server struct {
	opts      Options
	startTime time.Time
	http      *http.Server
}

// New 创建服务
func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultOptions().MaxUploadBytes
	}
	s := &Server{
		opts:      opts,
		startTime: time.Now(),
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 返回带中间件的路由
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Not found", http.StatusNotFound)
	})

	// OPTIONS 由 corsMiddleware 处理
	router.HandleFunc("/api/recognize", s.RecognizeHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/health", s.HealthHandler).Methods("GET", "OPTIONS")
	router.HandleFunc("/ws/recognize", s.WebSocketHandler).Methods("GET")

	return logMiddleware(corsMiddleware(router))
}

// Serve 在 lis 上提供服务，阻塞直到 Shutdown
//
// Shutdown 先于 Serve 调用时 Serve 立即返回 nil。
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("HTTP 服务启动: http://%s", lis.Addr())
	if err := s.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP 服务异常退出: %w", err)
	}
	return nil
}

// ListenAndServe 监听 addr 并提供服务
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	return s.Serve(lis)
}

// Shutdown 优雅停止
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("停止 HTTP 服务失败: %w", err)
	}
	logger.Info("HTTP 服务已停止")
	return nil
}

// recognizer 按请求参数创建识别器
func (s *Server) recognizer(annotate bool, thumbMax int) *recognize.Recognizer {
	return recognize.New(
		recognize.WithAnnotate(annotate),
		recognize.WithLabel(s.opts.Label),
		recognize.WithThumbMax(thumbMax),
	)
}
