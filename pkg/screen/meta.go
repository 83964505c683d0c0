package screen

import (
	"image"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// Capture 一次截图及其与屏幕坐标的换算关系
//
// Retina 等高 DPI 屏幕上截图像素多于屏幕坐标，Scale 为 截图像素 / 屏幕坐标。
type Capture struct {
	Image  image.Image
	Region Region
	ScaleX float64
	ScaleY float64
}

// newCapture 根据截图尺寸与期望区域计算缩放
func newCapture(img image.Image, r Region) *Capture {
	b := img.Bounds()
	c := &Capture{Image: img, Region: r, ScaleX: 1, ScaleY: 1}
	if r.Width > 0 && b.Dx() > 0 {
		c.ScaleX = float64(b.Dx()) / float64(r.Width)
	}
	if r.Height > 0 && b.Dy() > 0 {
		c.ScaleY = float64(b.Dy()) / float64(r.Height)
	}
	return c
}

// ToScreen 把截图像素坐标换算为屏幕坐标
func (c *Capture) ToScreen(x, y float64) (float64, float64) {
	return x/c.ScaleX + float64(c.Region.X), y/c.ScaleY + float64(c.Region.Y)
}

// AdjustResult 把基于截图的匹配结果换算到屏幕坐标
//
// 半径按 X 方向缩放换算；未找到的结果原样返回。
func (c *Capture) AdjustResult(r vision.MatchResult) vision.MatchResult {
	if !r.Found {
		return r
	}
	adjusted := r
	adjusted.X, adjusted.Y = c.ToScreen(r.X, r.Y)
	adjusted.Radius = r.Radius / c.ScaleX
	return adjusted
}
