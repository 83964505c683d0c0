// Package vision 提供灰度模板匹配功能
//
// 在搜索图中寻找模板（"pattern"）出现的位置：两张图分别缩放到长边
// 不超过 MaxDimension，转换为亮度，再在粗网格上用采样后的 SAD
// 滑窗比较，最后把最佳位置映射回原图坐标并给出 0-100 的置信度。
//
// 基本用法:
//
//	result := vision.Match(searchImg, patternImg)
//	if result.Found {
//	    fmt.Printf("位置: (%.1f, %.1f) 置信度: %d%%\n", result.X, result.Y, result.Confidence)
//	}
//
// Match 无状态、可重入，不做任何 I/O。
package vision

import (
	"fmt"
	"image"
	"math"

	"github.com/zoeyai/facefinder/internal/logger"
)

// Version 版本号
const Version = "1.0.0"

// Match 在 search 中查找 pattern
//
// 任何输入错误或内部异常都返回 NotFound()，不会向调用方传播。
func Match(search, pattern image.Image) MatchResult {
	result, _ := MatchDetailed(search, pattern)
	return result
}

// MatchDetailed 与 Match 相同，额外返回中间量
func MatchDetailed(search, pattern image.Image) (result MatchResult, details Details) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("模板匹配异常: %v", r)
			result, details = NotFound(), Details{}
		}
	}()

	result, details, err := match(search, pattern)
	if err != nil {
		logger.Debug("模板匹配失败: %v", err)
		return NotFound(), details
	}
	return result, details
}

// match 执行完整的匹配流程
func match(search, pattern image.Image) (MatchResult, Details, error) {
	var d Details

	sGray, err := Grayscale(search, MaxDimension)
	if err != nil {
		return NotFound(), d, fmt.Errorf("搜索图: %w", err)
	}
	pGray, err := Grayscale(pattern, MaxDimension)
	if err != nil {
		return NotFound(), d, fmt.Errorf("模板图: %w", err)
	}

	d.SearchSize = image.Pt(sGray.Width, sGray.Height)
	d.PatternSize = image.Pt(pGray.Width, pGray.Height)
	d.SearchScale = sGray.Scale
	d.PatternScale = pGray.Scale
	d.Focal = focalPoint(pGray)

	plan, ok := planSearch(sGray, pGray)
	if !ok {
		return NotFound(), d, nil
	}
	d.Fits = true
	d.Step, d.StrideX, d.StrideY = plan.step, plan.strideX, plan.strideY

	best, windows := slide(sGray, pGray, plan)
	d.BestOffset = image.Pt(best.x, best.y)
	d.Score = best.score
	d.Windows = windows

	d.RawScore, d.Confidence = confidence(best.score, pGray, plan)
	if d.Confidence <= FoundThreshold {
		return NotFound(), d, nil
	}

	pb := pattern.Bounds()
	return MatchResult{
		Found:      true,
		X:          float64(best.x)/sGray.Scale + float64(d.Focal.X)/pGray.Scale,
		Y:          float64(best.y)/sGray.Scale + float64(d.Focal.Y)/pGray.Scale,
		Radius:     markerRadius(pb.Dx(), pb.Dy()),
		Confidence: d.Confidence,
	}, d, nil
}

// confidence 把 SAD 归一化为 0-100 的置信度
//
// 归一化分母是 (pW/strideX) * (pH/strideY) * 255，按实数除法计算，
// 与实际采样点数 ceil(pW/strideX) * ceil(pH/strideY) 略有差异。
func confidence(score float64, pattern *GrayBuffer, p searchPlan) (raw float64, conf int) {
	cols := float64(pattern.Width) / float64(p.strideX)
	rows := float64(pattern.Height) / float64(p.strideY)
	norm := score / (cols * rows * MaxLuma)
	raw = (1 - norm) * 100
	conf = int(math.Max(0, math.Min(100, roundHalfUp(raw))))
	return raw, conf
}

// markerRadius 由原始模板尺寸计算标记半径
func markerRadius(w, h int) float64 {
	return math.Max(MinRadius, roundHalfUp(float64(max(w, h))*RadiusFactor))
}
