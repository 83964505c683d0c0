package vision

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// GrayBuffer 缩放后的灰度缓冲，按行优先存储
type GrayBuffer struct {
	Width  int
	Height int
	// Scale 相对原图的缩放比例 (<= 1)
	Scale float64
	Pix   []float32
}

// At 返回 (x, y) 处的亮度
func (g *GrayBuffer) At(x, y int) float32 {
	return g.Pix[y*g.Width+x]
}

// scaleFor 计算使长边不超过 bound 的缩放比例，不放大
func scaleFor(w, h, bound int) float64 {
	return math.Min(1, float64(bound)/float64(max(w, h)))
}

// scaledSize 按比例缩放后的整数尺寸，每个方向至少为 1
func scaledSize(w, h int, scale float64) (int, int) {
	sw := max(1, int(roundHalfUp(float64(w)*scale)))
	sh := max(1, int(roundHalfUp(float64(h)*scale)))
	return sw, sh
}

// Grayscale 把图像缩放到长边不超过 bound，并转换为亮度缓冲
//
// 透明通道被丢弃；重采样使用双线性插值。
func Grayscale(img image.Image, bound int) (*GrayBuffer, error) {
	if img == nil {
		return nil, &ImageSizeError{Reason: "图像为空"}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &ImageSizeError{Width: b.Dx(), Height: b.Dy(), Reason: "宽高必须为正数"}
	}

	src := img
	if r, ok := img.(*Raster); ok {
		if err := r.valid(); err != nil {
			return nil, err
		}
		src = r.toNRGBA()
	}

	scale := scaleFor(b.Dx(), b.Dy(), bound)
	sw, sh := scaledSize(b.Dx(), b.Dy(), scale)

	dst := image.NewNRGBA(image.Rect(0, 0, sw, sh))
	if sw == b.Dx() && sh == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	return lumaOf(dst, scale), nil
}

// lumaOf 逐像素计算 0.299R + 0.587G + 0.114B
func lumaOf(img *image.NRGBA, scale float64) *GrayBuffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	g := &GrayBuffer{
		Width:  w,
		Height: h,
		Scale:  scale,
		Pix:    make([]float32, w*h),
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			g.Pix[y*w+x] = float32(lumaR*float64(p[0]) + lumaG*float64(p[1]) + lumaB*float64(p[2]))
		}
	}
	return g
}

// roundHalfUp 四舍五入，.5 向正无穷方向进位
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
