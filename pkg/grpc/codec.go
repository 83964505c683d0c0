package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName JSON 编解码器名称，即 content-subtype
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec 用 JSON 编码 gRPC 消息
//
// Matcher 服务的消息是普通 Go 结构体，不经过 protoc 生成。
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("JSON 编码失败: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("JSON 解码失败: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return CodecName
}
