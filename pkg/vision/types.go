package vision

import (
	"fmt"
	"image"
	"image/color"
)

// Raster 已解码的原始像素缓冲
//
// Pix 按行优先存储，每像素 Channels 个字节（3 = RGB，4 = RGBA）。
// Raster 实现了 image.Image，可以直接传给 Match。
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewRaster 校验尺寸与缓冲长度后创建 Raster
func NewRaster(width, height, channels int, pix []byte) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, &ImageSizeError{Width: width, Height: height, Reason: "宽高必须为正数"}
	}
	if channels != 3 && channels != 4 {
		return nil, &ImageSizeError{Width: width, Height: height, Reason: fmt.Sprintf("不支持的通道数 %d", channels)}
	}
	if need := width * height * channels; len(pix) < need {
		return nil, &ImageSizeError{Width: width, Height: height, Reason: fmt.Sprintf("像素缓冲过短: %d < %d", len(pix), need)}
	}
	return &Raster{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

// ColorModel 实现 image.Image
func (r *Raster) ColorModel() color.Model { return color.NRGBAModel }

// Bounds 实现 image.Image
func (r *Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At 实现 image.Image
func (r *Raster) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return color.NRGBA{}
	}
	i := (y*r.Width + x) * r.Channels
	c := color.NRGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: 0xff}
	if r.Channels == 4 {
		c.A = r.Pix[i+3]
	}
	return c
}

// valid 检查缓冲是否与声明的尺寸一致
func (r *Raster) valid() error {
	_, err := NewRaster(r.Width, r.Height, r.Channels, r.Pix)
	return err
}

// toNRGBA 转换为 *image.NRGBA（非预乘），供重采样快速路径使用
func (r *Raster) toNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(r.Bounds())
	if r.Channels == 4 {
		copy(dst.Pix, r.Pix[:r.Width*r.Height*4])
		return dst
	}
	for i, j := 0, 0; j < r.Width*r.Height*3; i, j = i+4, j+3 {
		dst.Pix[i] = r.Pix[j]
		dst.Pix[i+1] = r.Pix[j+1]
		dst.Pix[i+2] = r.Pix[j+2]
		dst.Pix[i+3] = 0xff
	}
	return dst
}

// MatchResult 匹配结果
//
// Found 为 false 时其余字段均为零值，序列化后只有 {"found":false}。
// X/Y 为原始（未缩放）搜索图中的像素坐标。
type MatchResult struct {
	Found      bool    `json:"found"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	Confidence int     `json:"confidence,omitempty"`
}

// NotFound 返回统一的未找到结果
func NotFound() MatchResult {
	return MatchResult{}
}

// Details 一次匹配的中间量，仅用于诊断
type Details struct {
	SearchSize   image.Point `json:"search_size"`   // 缩放后搜索图尺寸
	PatternSize  image.Point `json:"pattern_size"`  // 缩放后模板尺寸
	SearchScale  float64     `json:"search_scale"`  // 搜索图缩放比例
	PatternScale float64     `json:"pattern_scale"` // 模板缩放比例
	Step         int         `json:"step"`
	StrideX      int         `json:"stride_x"`
	StrideY      int         `json:"stride_y"`
	Focal        image.Point `json:"focal"`       // 缩放后模板中的焦点
	BestOffset   image.Point `json:"best_offset"` // 缩放后搜索图中的最佳偏移
	Score        float64     `json:"score"`       // 最佳 SAD
	Windows      int         `json:"windows"`     // 实际比较的窗口数
	RawScore     float64     `json:"raw_score"`   // (1 - norm) * 100，未取整未截断
	Confidence   int         `json:"confidence"`
	Fits         bool        `json:"fits"` // 模板是否能放入搜索图
}

// ImageSizeError 图像尺寸或缓冲不合法
type ImageSizeError struct {
	Width  int
	Height int
	Reason string
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("图像尺寸不合法 (%dx%d): %s", e.Width, e.Height, e.Reason)
}
