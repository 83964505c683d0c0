package vision

// 匹配策略常量
//
// 这些数值是经验值，改动任意一项都会改变置信度分布，
// 因此以常量形式导出而不是做成可配置项。
const (
	// MaxDimension 缩放后图像长边上限（像素）
	MaxDimension = 300

	// FocalXRatio 焦点（"鼻尖"）在模板中的水平位置比例
	FocalXRatio = 0.5
	// FocalYRatio 焦点在模板中的垂直位置比例（略低于中心）
	FocalYRatio = 0.55

	// StepDivisor 滑窗步长 = round(min(pW, pH) / StepDivisor)
	StepDivisor = 8
	// StrideDivisor 窗口内采样间隔 = round(pW / StrideDivisor)，行方向同理
	StrideDivisor = 16

	// MaxLuma 单像素最大亮度差
	MaxLuma = 255.0

	// FoundThreshold 置信度严格大于该值才视为找到
	FoundThreshold = 45

	// RadiusFactor 标记半径 = round(max(原始模板宽, 原始模板高) * RadiusFactor)
	RadiusFactor = 0.12
	// MinRadius 标记半径下限
	MinRadius = 20.0
)

// 灰度权重 (ITU-R BT.601)
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)
