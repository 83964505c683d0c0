package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// LabelSize 标签字号（点）
const LabelSize = 14

var (
	fontOnce sync.Once
	regular  *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		regular, fontErr = truetype.Parse(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("解析字体失败: %w", fontErr)
		}
	})
	return regular, fontErr
}

// DrawLabel 在 dst 左上角绘制一行文字，带半透明背景
//
// Go Regular 字体没有中文字形，中文字符会显示为方框。
func DrawLabel(dst *image.RGBA, text string) error {
	if text == "" {
		return nil
	}
	f, err := loadFont()
	if err != nil {
		return err
	}

	face := truetype.NewFace(f, &truetype.Options{Size: LabelSize, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()

	m := face.Metrics()
	pad := 4
	b := dst.Bounds()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := (m.Ascent + m.Descent).Ceil()

	box := image.Rect(b.Min.X, b.Min.Y, b.Min.X+width+2*pad, b.Min.Y+height+2*pad).Intersect(b)
	draw.Draw(dst, box, image.NewUniform(color.RGBA{A: 0x99}), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I(b.Min.X + pad),
		Y: fixed.I(b.Min.Y+pad) + m.Ascent,
	}
	d.DrawString(text)
	return nil
}
