// Package cv 用 OpenCV 对模板匹配结果做交叉校验
//
// vision 包只在粗网格上做采样 SAD。本包在同样缩放后的灰度缓冲上
// 用 TM_CCOEFF_NORMED 做逐像素的稠密匹配，比较两者给出的位置，
// 用于调试和命令行的 -verify 选项，不参与生成 MatchResult。
//
// 基本用法:
//
//	check, err := cv.CrossCheck(searchImg, patternImg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("粗网格: %v 稠密: %v 一致: %v\n", check.Details.BestOffset, check.Dense, check.Agrees)
package cv

import (
	"fmt"
	"image"
	"math"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// CrossCheck 对 search/pattern 执行一次匹配，并用 OpenCV 稠密匹配校验
func CrossCheck(search, pattern image.Image) (*CheckResult, error) {
	startTime := time.Now()

	result, details := vision.MatchDetailed(search, pattern)

	sGray, err := vision.Grayscale(search, vision.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("搜索图: %w", err)
	}
	pGray, err := vision.Grayscale(pattern, vision.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("模板图: %w", err)
	}
	if err := checkSearchLargerThanPattern(sGray, pGray); err != nil {
		return nil, err
	}

	sMat := GrayToMat(sGray)
	defer sMat.Close()
	pMat := GrayToMat(pGray)
	defer pMat.Close()

	dense, denseScore := bestCorrelation(sMat, pMat)
	coarseScore := correlationAt(sMat, pMat, details.BestOffset)

	dx := float64(dense.X - details.BestOffset.X)
	dy := float64(dense.Y - details.BestOffset.Y)
	distance := math.Hypot(dx, dy)

	return &CheckResult{
		Result:      result,
		Details:     details,
		Dense:       dense,
		DenseScore:  denseScore,
		CoarseScore: coarseScore,
		Distance:    distance,
		Agrees:      distance <= float64(details.Step),
		Time:        float64(time.Since(startTime).Milliseconds()),
	}, nil
}

// CrossCheckFiles 用 OpenCV 读取两个图像文件后执行 CrossCheck
func CrossCheckFiles(searchPath, patternPath string) (*CheckResult, error) {
	sMat, err := ReadImage(searchPath)
	if err != nil {
		return nil, err
	}
	defer sMat.Close()
	pMat, err := ReadImage(patternPath)
	if err != nil {
		return nil, err
	}
	defer pMat.Close()

	search, err := MatToImage(sMat)
	if err != nil {
		return nil, err
	}
	pattern, err := MatToImage(pMat)
	if err != nil {
		return nil, err
	}
	return CrossCheck(search, pattern)
}

// bestCorrelation 稠密 TM_CCOEFF_NORMED，返回相关系数最大的左上角位置
//
// 模板为纯色时相关系数无定义，OpenCV 返回的值没有意义。
func bestCorrelation(search, pattern gocv.Mat) (image.Point, float64) {
	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(search, pattern, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	return maxLoc, float64(maxVal)
}

// correlationAt 模板放在 offset 处时的相关系数
func correlationAt(search, pattern gocv.Mat, offset image.Point) float64 {
	w, h := pattern.Cols(), pattern.Rows()
	roi := search.Region(image.Rect(offset.X, offset.Y, offset.X+w, offset.Y+h))
	defer roi.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(roi, pattern, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal)
}

// checkSearchLargerThanPattern 检查缩放后模板能否放入搜索图
func checkSearchLargerThanPattern(search, pattern *vision.GrayBuffer) error {
	if search.Width < pattern.Width || search.Height < pattern.Height {
		return &SizeError{
			SearchSize:  image.Pt(search.Width, search.Height),
			PatternSize: image.Pt(pattern.Width, pattern.Height),
		}
	}
	return nil
}
