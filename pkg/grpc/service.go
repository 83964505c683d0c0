package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"

	"github.com/zoeyai/facefinder/pkg/process"
	"github.com/zoeyai/facefinder/pkg/recognize"
)

// ServiceName gRPC 服务名
const ServiceName = "facefinder.Matcher"

// 完整方法名
const (
	MethodRecognize = "/" + ServiceName + "/Recognize"
	MethodInfo      = "/" + ServiceName + "/Info"
)

// RecognizeRequest 识别请求，图像为原始文件字节
type RecognizeRequest struct {
	Search      []byte `json:"search"`
	SearchMIME  string `json:"search_mime,omitempty"`
	Pattern     []byte `json:"pattern"`
	PatternMIME string `json:"pattern_mime,omitempty"`
	Lang        string `json:"lang,omitempty"`
}

// InfoRequest 服务信息请求
type InfoRequest struct{}

// InfoResponse 服务信息
type InfoResponse struct {
	Version string         `json:"version"`
	System  *SystemInfo    `json:"system"`
	Process *process.Stats `json:"process,omitempty"`
}

// MatcherServer Matcher 服务接口
type MatcherServer interface {
	Recognize(context.Context, *RecognizeRequest) (*recognize.Report, error)
	Info(context.Context, *InfoRequest) (*InfoResponse, error)
}

// MatcherServiceDesc Matcher 服务描述
var MatcherServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatcherServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "Recognize", Handler: recognizeHandler},
		{MethodName: "Info", Handler: infoHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "facefinder/matcher",
}

// RegisterMatcherServer 注册 Matcher 服务
func RegisterMatcherServer(s gogrpc.ServiceRegistrar, srv MatcherServer) {
	s.RegisterService(&MatcherServiceDesc, srv)
}

func recognizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(RecognizeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServer).Recognize(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: MethodRecognize}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServer).Recognize(ctx, req.(*RecognizeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func infoHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(InfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServer).Info(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: MethodInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatcherServer).Info(ctx, req.(*InfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}
