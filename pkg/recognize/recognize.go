// Package recognize 实现"识别"用例：解码 → 匹配 → 绘制标记 → 生成消息
//
// HTTP、WebSocket、gRPC 和命令行共用同一个 Recognizer。
package recognize

import (
	"fmt"
	"image"
	"time"

	"github.com/zoeyai/facefinder/internal/logger"
	"github.com/zoeyai/facefinder/pkg/i18n"
	"github.com/zoeyai/facefinder/pkg/imageio"
	"github.com/zoeyai/facefinder/pkg/render"
	"github.com/zoeyai/facefinder/pkg/vision"
)

// Report 一次识别的结果
type Report struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Result    vision.MatchResult `json:"result"`
	Image     string             `json:"image,omitempty"` // 标注后的搜索图 (data URL)
	Language  string             `json:"language"`
	ElapsedMs float64            `json:"elapsed_ms"`
	Error     string             `json:"error,omitempty"`
	Details   *vision.Details    `json:"details,omitempty"`
}

// Input 一张待解码的图像
type Input struct {
	Data []byte
	MIME string // 为空时按内容嗅探
}

// Request 已解码的识别请求
type Request struct {
	Search  image.Image
	Pattern image.Image
	Lang    string
}

// Recognizer 识别器，创建后只读，可并发使用
type Recognizer struct {
	opts Options
}

// New 创建识别器
func New(opts ...Option) *Recognizer {
	return &Recognizer{opts: applyOptions(opts...)}
}

// Options 返回识别器的配置副本
func (r *Recognizer) Options() Options {
	return r.opts
}

// Recognize 对已解码的图像执行识别
func (r *Recognizer) Recognize(req Request) Report {
	start := time.Now()
	loc := i18n.New(req.Lang)

	var (
		result  vision.MatchResult
		details vision.Details
	)
	if r.opts.Details {
		result, details = vision.MatchDetailed(req.Search, req.Pattern)
	} else {
		result = vision.Match(req.Search, req.Pattern)
	}

	report := Report{
		Success:  true,
		Message:  loc.Result(result),
		Result:   result,
		Language: loc.Tag().String(),
	}
	if r.opts.Details {
		report.Details = &details
	}

	if r.opts.Annotate && req.Search != nil {
		url, err := r.annotate(req.Search, result, report.Message)
		if err != nil {
			logger.Warn("绘制标记失败: %v", err)
		} else {
			report.Image = url
		}
	}

	report.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000
	logger.LogEvent("MATCH", result.Found, report.ElapsedMs,
		fmt.Sprintf("found=%v conf=%d x=%.1f y=%.1f", result.Found, result.Confidence, result.X, result.Y))
	return report
}

// RecognizeBytes 解码两张图像后执行识别
//
// 解码失败时返回 Success=false 的报告和错误。
func (r *Recognizer) RecognizeBytes(search, pattern Input, lang string) (Report, error) {
	searchImg, _, err := imageio.Decode(search.Data, search.MIME)
	if err != nil {
		return r.failed(lang, fmt.Errorf("搜索图: %w", err)), err
	}
	patternImg, _, err := imageio.Decode(pattern.Data, pattern.MIME)
	if err != nil {
		return r.failed(lang, fmt.Errorf("模板图: %w", err)), err
	}
	return r.Recognize(Request{Search: searchImg, Pattern: patternImg, Lang: lang}), nil
}

// RecognizeDataURLs 解码两个 data URL 后执行识别
func (r *Recognizer) RecognizeDataURLs(searchURL, patternURL, lang string) (Report, error) {
	searchImg, _, err := imageio.DecodeDataURL(searchURL)
	if err != nil {
		return r.failed(lang, fmt.Errorf("搜索图: %w", err)), err
	}
	patternImg, _, err := imageio.DecodeDataURL(patternURL)
	if err != nil {
		return r.failed(lang, fmt.Errorf("模板图: %w", err)), err
	}
	return r.Recognize(Request{Search: searchImg, Pattern: patternImg, Lang: lang}), nil
}

// failed 生成失败报告
func (r *Recognizer) failed(lang string, err error) Report {
	loc := i18n.New(lang)
	logger.LogEvent("MATCH", false, 0, err.Error())
	return Report{
		Success:  false,
		Message:  loc.Failed(),
		Result:   vision.NotFound(),
		Language: loc.Tag().String(),
		Error:    err.Error(),
	}
}

// annotate 绘制标记并编码为 data URL
func (r *Recognizer) annotate(search image.Image, result vision.MatchResult, message string) (string, error) {
	out := render.Annotate(search, result)
	if r.opts.Label {
		if err := render.DrawLabel(out, message); err != nil {
			return "", err
		}
	}
	return imageio.ToDataURL(render.Thumbnail(out, r.opts.ThumbMax), r.opts.Format, r.opts.Quality)
}
