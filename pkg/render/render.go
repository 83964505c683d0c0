// Package render 在识别结果上绘制标记
//
// 标记由一个圆和十字准星组成，圆心是匹配位置、半径来自匹配结果。
// 所有函数都返回新图像，不修改输入。
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// circleSegments 圆的多边形近似段数
const circleSegments = 96

// MarkerStyle 标记样式
type MarkerStyle struct {
	Color       color.Color
	CircleWidth float64 // 圆的线宽
	CrossSize   float64 // 十字准星半长
	CrossWidth  float64 // 十字准星线宽
}

// DefaultMarkerStyle 默认样式：红色 (#ff0000)，圆线宽 3，十字 ±10、线宽 2
func DefaultMarkerStyle() MarkerStyle {
	return MarkerStyle{
		Color:       color.RGBA{R: 0xff, A: 0xff},
		CircleWidth: 3,
		CrossSize:   10,
		CrossWidth:  2,
	}
}

// ToRGBA 复制图像为以 (0,0) 为原点的 *image.RGBA
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Annotate 返回带标记的副本；未找到时返回未修改的副本
func Annotate(img image.Image, result vision.MatchResult) *image.RGBA {
	dst := ToRGBA(img)
	if result.Found {
		DrawMarker(dst, result.X, result.Y, result.Radius, DefaultMarkerStyle())
	}
	return dst
}

// DrawMarker 在 dst 上以 (x, y) 为圆心绘制圆和十字准星
func DrawMarker(dst *image.RGBA, x, y, radius float64, style MarkerStyle) {
	b := dst.Bounds()
	if b.Empty() {
		return
	}
	src := image.NewUniform(style.Color)

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	ox, oy := x-float64(b.Min.X), y-float64(b.Min.Y)

	half := style.CircleWidth / 2
	ring(z, ox, oy, radius+half, math.Max(0, radius-half))
	rect(z, ox-style.CrossSize, oy-style.CrossWidth/2, ox+style.CrossSize, oy+style.CrossWidth/2)
	rect(z, ox-style.CrossWidth/2, oy-style.CrossSize, ox+style.CrossWidth/2, oy+style.CrossSize)

	z.Draw(dst, b, src, image.Point{})
}

// ring 添加圆环路径：外圈逆时针、内圈顺时针，内部互相抵消
func ring(z *vector.Rasterizer, cx, cy, outer, inner float64) {
	circle(z, cx, cy, outer, false)
	if inner > 0 {
		circle(z, cx, cy, inner, true)
	}
}

func circle(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	for i := 0; i <= circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		if reverse {
			a = -a
		}
		px := float32(cx + r*math.Cos(a))
		py := float32(cy + r*math.Sin(a))
		if i == 0 {
			z.MoveTo(px, py)
		} else {
			z.LineTo(px, py)
		}
	}
	z.ClosePath()
}

func rect(z *vector.Rasterizer, x0, y0, x1, y1 float64) {
	z.MoveTo(float32(x0), float32(y0))
	z.LineTo(float32(x1), float32(y0))
	z.LineTo(float32(x1), float32(y1))
	z.LineTo(float32(x0), float32(y1))
	z.ClosePath()
}

// Thumbnail 把图像缩小到不超过 maxSize×maxSize，保持宽高比
//
// maxSize <= 0 或图像已经足够小时原样返回。
func Thumbnail(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Lanczos3)
}
