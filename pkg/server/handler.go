package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/imageio"
	"github.com/zoeyai/facefinder/pkg/process"
	"github.com/zoeyai/facefinder/pkg/recognize"
	"github.com/zoeyai/facefinder/pkg/vision"
)

// HealthResponse GET /health 响应
type HealthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	UptimeSec float64        `json:"uptime_sec"`
	Process   *process.Stats `json:"process,omitempty"`
}

// RecognizeHandler 处理 POST /api/recognize
func (s *Server) RecognizeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, fmt.Sprintf("上传内容超过 %d 字节", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "解析表单失败", http.StatusBadRequest)
		return
	}

	pattern, err := readFormFile(r, "pattern")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	search, err := readFormFile(r, "search")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	annotate := s.opts.Annotate
	if v := r.FormValue("annotate"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			annotate = b
		}
	}
	thumbMax := s.opts.ThumbMax
	if v := r.FormValue("thumb"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			thumbMax = n
		}
	}

	report, err := s.recognizer(annotate, thumbMax).RecognizeBytes(search, pattern, s.language(r))
	if err != nil {
		logger.Debug("识别请求失败: %v", err)
		code := http.StatusBadRequest
		if errors.Is(err, imageio.ErrTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		respondJSON(w, report, code)
		return
	}
	respondJSON(w, report, http.StatusOK)
}

// HealthHandler 处理 GET /health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   vision.Version,
		UptimeSec: time.Since(s.startTime).Seconds(),
	}
	if stats, err := process.Self(); err == nil {
		resp.Process = stats
	}
	respondJSON(w, resp, http.StatusOK)
}

// language 请求语言：表单 lang > Accept-Language > 默认
func (s *Server) language(r *http.Request) string {
	if lang := r.FormValue("lang"); lang != "" {
		return lang
	}
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		return lang
	}
	return s.opts.DefaultLang
}

// readFormFile 读取上传文件及其 Content-Type
func readFormFile(r *http.Request, field string) (recognize.Input, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return recognize.Input{}, fmt.Errorf("缺少文件: %s", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return recognize.Input{}, fmt.Errorf("读取文件失败: %s: %w", field, err)
	}
	return recognize.Input{Data: data, MIME: contentType(header)}, nil
}

func contentType(h *multipart.FileHeader) string {
	if h == nil {
		return ""
	}
	return h.Header.Get("Content-Type")
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
