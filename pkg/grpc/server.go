package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/imageio"
	"github.com/zoeyai/facefinder/pkg/process"
	"github.com/zoeyai/facefinder/pkg/recognize"
)

// Server gRPC 服务端，提供 Matcher 服务和标准健康检查
type Server struct {
	recognizer *recognize.Recognizer
	grpcServer *gogrpc.Server
	health     *health.Server
}

// NewServer 创建服务端
//
// 默认消息上限为 DefaultMaxMessageBytes，可以在 opts 中用 MessageLimitOptions 覆盖。
func NewServer(recognizer *recognize.Recognizer, opts ...gogrpc.ServerOption) *Server {
	if recognizer == nil {
		recognizer = recognize.New()
	}
	base := append([]gogrpc.ServerOption{gogrpc.ChainUnaryInterceptor(logInterceptor)},
		MessageLimitOptions(DefaultMaxMessageBytes)...)
	opts = append(base, opts...)

	s := &Server{
		recognizer: recognizer,
		grpcServer: gogrpc.NewServer(opts...),
		health:     health.NewServer(),
	}
	RegisterMatcherServer(s.grpcServer, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// MessageLimitOptions 按上传上限设置服务端的收发消息大小
//
// 请求带两张原始图像，不超过 maxBytes；响应可能带 base64 的标注图，上限放宽一倍。
func MessageLimitOptions(maxBytes int) []gogrpc.ServerOption {
	return []gogrpc.ServerOption{
		gogrpc.MaxRecvMsgSize(maxBytes),
		gogrpc.MaxSendMsgSize(responseLimit(maxBytes)),
	}
}

// Serve 在 lis 上提供服务，阻塞直到 Stop
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("gRPC 服务启动: %s", lis.Addr())
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
		return fmt.Errorf("gRPC 服务异常退出: %w", err)
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

// Stop 优雅停止
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	logger.Info("gRPC 服务已停止")
}

// Recognize 实现 MatcherServer
func (s *Server) Recognize(ctx context.Context, req *RecognizeRequest) (*recognize.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	report, err := s.recognizer.RecognizeBytes(
		recognize.Input{Data: req.Search, MIME: req.SearchMIME},
		recognize.Input{Data: req.Pattern, MIME: req.PatternMIME},
		req.Lang,
	)
	if err != nil {
		return nil, status.Error(errorCode(err), report.Error)
	}
	return &report, nil
}

// Info 实现 MatcherServer
func (s *Server) Info(ctx context.Context, _ *InfoRequest) (*InfoResponse, error) {
	resp := &InfoResponse{
		Version: Version,
		System:  GetSystemInfo(),
	}
	if stats, err := process.Self(); err == nil {
		resp.Process = stats
	} else {
		logger.Debug("获取进程状态失败: %v", err)
	}
	return resp, nil
}

// errorCode 识别错误对应的 gRPC 状态码
func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, imageio.ErrNotImage),
		errors.Is(err, imageio.ErrEmptyData),
		errors.Is(err, imageio.ErrBadDataURL),
		errors.Is(err, imageio.ErrDecode),
		errors.Is(err, imageio.ErrTooLarge):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// logInterceptor 记录每次调用的耗时和结果
func logInterceptor(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	detail := info.FullMethod
	if err != nil {
		detail = fmt.Sprintf("%s: %v", info.FullMethod, err)
	}
	logger.LogEvent("GRPC", err == nil, elapsed, detail)
	return resp, err
}
