package cv

import (
	"fmt"
	"image"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// CheckResult 交叉校验结果
//
// 所有位置都在缩放后的搜索图坐标系中。
type CheckResult struct {
	// Result vision.Match 的结果
	Result vision.MatchResult `json:"result"`
	// Details vision.MatchDetailed 的中间量
	Details vision.Details `json:"details"`
	// Dense OpenCV 稠密匹配的最佳左上角
	Dense image.Point `json:"dense"`
	// DenseScore 稠密匹配的相关系数 (-1 到 1)
	DenseScore float64 `json:"dense_score"`
	// CoarseScore 粗网格最佳位置处的相关系数
	CoarseScore float64 `json:"coarse_score"`
	// Distance 两个位置之间的距离（像素）
	Distance float64 `json:"distance"`
	// Agrees 距离不超过粗网格步长
	Agrees bool `json:"agrees"`
	// Time 耗时（毫秒）
	Time float64 `json:"time,omitempty"`
}

// SizeError 缩放后的模板大于搜索图
type SizeError struct {
	SearchSize  image.Point
	PatternSize image.Point
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("模板尺寸 %dx%d 大于搜索图 %dx%d",
		e.PatternSize.X, e.PatternSize.Y, e.SearchSize.X, e.SearchSize.Y)
}
