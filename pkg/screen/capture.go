// Package screen 提供屏幕截图功能，截图可直接作为搜索图使用
package screen

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// Region 屏幕区域（屏幕坐标）
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty 区域是否为空
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// CaptureScreen 截取全屏
func CaptureScreen() (*Capture, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	w, h := ScreenSize()
	return newCapture(img, Region{Width: w, Height: h}), nil
}

// CaptureRegion 截取屏幕区域
func CaptureRegion(r Region) (*Capture, error) {
	if r.Empty() {
		return nil, fmt.Errorf("截图区域无效: %+v", r)
	}
	img, err := robotgo.CaptureImg(r.X, r.Y, r.Width, r.Height)
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	return newCapture(img, r), nil
}

// ScreenSize 获取主屏幕尺寸（屏幕坐标）
func ScreenSize() (width, height int) {
	return robotgo.GetScreenSize()
}

// DisplayCount 获取显示器数量
func DisplayCount() int {
	return robotgo.DisplaysNum()
}

// Available 当前环境能否截屏
func Available() bool {
	w, h := ScreenSize()
	return w > 0 && h > 0
}
