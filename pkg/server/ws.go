package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/i18n"
	"github.com/zoeyai/facefinder/pkg/recognize"
	"github.com/zoeyai/facefinder/pkg/vision"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 与 CORS 策略一致，允许任意来源
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsRequest WebSocket 请求消息，图像为 data URL
type WsRequest struct {
	Pattern  string `json:"pattern"`
	Search   string `json:"search"`
	Lang     string `json:"lang,omitempty"`
	Annotate *bool  `json:"annotate,omitempty"`
}

// WebSocketHandler 处理 GET /ws/recognize
//
// 每收到一条请求回复一个 Report，直到客户端关闭连接。
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	// data URL 的 base64 比原始文件大约 1/3，两张图再加余量
	conn.SetReadLimit(s.opts.MaxUploadBytes * 3)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket 读取失败: %v", err)
			}
			return
		}

		report := s.handleWsMessage(data)

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(report); err != nil {
			logger.Warn("WebSocket 写入失败: %v", err)
			return
		}
	}
}

// handleWsMessage 解析并处理一条消息
func (s *Server) handleWsMessage(data []byte) recognize.Report {
	var req WsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		loc := i18n.New(s.opts.DefaultLang)
		return recognize.Report{
			Success:  false,
			Message:  loc.Failed(),
			Result:   vision.NotFound(),
			Language: loc.Tag().String(),
			Error:    "消息格式错误: " + err.Error(),
		}
	}

	lang := req.Lang
	if lang == "" {
		lang = s.opts.DefaultLang
	}
	annotate := s.opts.Annotate
	if req.Annotate != nil {
		annotate = *req.Annotate
	}

	report, err := s.recognizer(annotate, s.opts.ThumbMax).RecognizeDataURLs(req.Search, req.Pattern, lang)
	if err != nil {
		logger.Debug("WebSocket 识别失败: %v", err)
	}
	return report
}
