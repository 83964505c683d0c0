// Package imageio 提供图像解码与编码功能
//
// 支持的输入格式: png, jpeg, gif, bmp, tiff, webp, pbm/pgm/ppm。
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"

	_ "image/gif"

	_ "github.com/jbuchbinder/gopnm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotImage MIME 类型不是 image/*
	ErrNotImage = errors.New("不是图像文件")
	// ErrEmptyData 输入数据为空
	ErrEmptyData = errors.New("图像数据为空")
	// ErrBadDataURL data URL 格式错误
	ErrBadDataURL = errors.New("data URL 格式错误")
	// ErrDecode 图像内容无法解码
	ErrDecode = errors.New("解码图像失败")
	// ErrTooLarge 图像像素数超过 MaxPixels
	ErrTooLarge = errors.New("图像尺寸过大")
)

// MaxPixels 允许解码的最大像素数（宽 × 高）
//
// 在分配像素缓冲之前用文件头中的尺寸检查，压缩率很高的小文件也不会耗尽内存。
const MaxPixels = 40_000_000

// IsImageMIME 判断 MIME 类型是否为 image/*
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

// Decode 解码图像
//
// mime 为空时按内容嗅探；非空时必须是 image/*。
func Decode(data []byte, mime string) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = sniff(data)
	}
	if !IsImageMIME(mime) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotImage, mime)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := checkPixels(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, format, nil
}

func checkPixels(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: 尺寸无效 %dx%d", ErrDecode, w, h)
	}
	if int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%w: %dx%d 超过 %d 像素", ErrTooLarge, w, h, MaxPixels)
	}
	return nil
}

// DecodeReader 从 io.Reader 读取并解码图像
func DecodeReader(r io.Reader, mime string) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("读取图像失败: %w", err)
	}
	return Decode(data, mime)
}

// DecodeDataURL 解码 data:image/...;base64,... 格式的图像
func DecodeDataURL(dataURL string) (image.Image, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrBadDataURL
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return nil, "", fmt.Errorf("%w: 仅支持 base64 编码", ErrBadDataURL)
	}
	if !IsImageMIME(mime) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotImage, mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return Decode(data, mime)
}

// ReadFile 读取并解码图像文件
func ReadFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图像文件失败: %w", err)
	}
	img, _, err := Decode(data, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// sniff 按内容推断 MIME 类型
//
// http.DetectContentType 不识别 PNM（P1-P6 文件头），需要单独判断。
func sniff(data []byte) string {
	if len(data) >= 2 && data[0] == 'P' && data[1] >= '1' && data[1] <= '6' {
		return "image/x-portable-anymap"
	}
	return http.DetectContentType(data)
}

// ==================== 编码 ====================

// Encode 按格式编码图像
// format: "png" 或 "jpeg"，默认 "png"
// quality: JPEG 质量 1-100，默认 80
func Encode(w io.Writer, img image.Image, format string, quality int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("图像为空")
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	switch format {
	case "", "png":
		if err := png.Encode(w, img); err != nil {
			return "", fmt.Errorf("PNG 编码失败: %w", err)
		}
		return "image/png", nil
	case "jpeg", "jpg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", fmt.Errorf("JPEG 编码失败: %w", err)
		}
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("不支持的图像格式: %s", format)
	}
}

// ToDataURL 将图像编码为 data URL
func ToDataURL(img image.Image, format string, quality int) (string, error) {
	var buf bytes.Buffer
	mime, err := Encode(&buf, img, format, quality)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// WriteFile 按扩展名编码并写入文件（.jpg/.jpeg 为 JPEG，其余为 PNG）
func WriteFile(path string, img image.Image) error {
	format := "png"
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		format = "jpeg"
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := Encode(f, img, format, 90); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
