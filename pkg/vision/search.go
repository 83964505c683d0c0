package vision

import (
	"image"
	"math"
)

// candidate 滑窗过程中的候选位置
type candidate struct {
	score float64
	x, y  int
}

// searchPlan 一次滑窗搜索的步长与采样间隔
type searchPlan struct {
	maxX, maxY       int
	step             int
	strideX, strideY int
}

// planSearch 计算搜索范围、步长和采样间隔
//
// ok 为 false 表示模板在缩放后放不进搜索图。
func planSearch(search, pattern *GrayBuffer) (p searchPlan, ok bool) {
	p.maxX = search.Width - pattern.Width
	p.maxY = search.Height - pattern.Height
	if p.maxX < 0 || p.maxY < 0 {
		return p, false
	}
	p.step = max(1, int(roundHalfUp(float64(min(pattern.Width, pattern.Height))/StepDivisor)))
	p.strideX = max(1, int(roundHalfUp(float64(pattern.Width)/StrideDivisor)))
	p.strideY = max(1, int(roundHalfUp(float64(pattern.Height)/StrideDivisor)))
	return p, true
}

// slide 在粗网格上滑动模板，返回 SAD 最小的位置
//
// 按行优先扫描，只在更小时替换，因此并列时保留最先遇到的位置。
func slide(search, pattern *GrayBuffer, p searchPlan) (best candidate, windows int) {
	best = candidate{score: math.Inf(1)}
	sW, pW, pH := search.Width, pattern.Width, pattern.Height

	for sy := 0; sy <= p.maxY; sy += p.step {
		for sx := 0; sx <= p.maxX; sx += p.step {
			var sad float64
			for py := 0; py < pH; py += p.strideY {
				sRow := (sy+py)*sW + sx
				pRow := py * pW
				for px := 0; px < pW; px += p.strideX {
					sad += math.Abs(float64(search.Pix[sRow+px]) - float64(pattern.Pix[pRow+px]))
				}
			}
			windows++
			if sad < best.score {
				best = candidate{score: sad, x: sx, y: sy}
			}
		}
	}
	return best, windows
}

// focalPoint 估计模板内的焦点（水平居中，略低于垂直中心）
func focalPoint(pattern *GrayBuffer) image.Point {
	return image.Point{
		X: int(roundHalfUp(float64(pattern.Width) * FocalXRatio)),
		Y: int(roundHalfUp(float64(pattern.Height) * FocalYRatio)),
	}
}
