package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// ReadImage 读取图像文件（BGR）
func ReadImage(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadColor)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// GrayToMat 把灰度缓冲转换为单通道 CV_32F Mat
func GrayToMat(g *vision.GrayBuffer) gocv.Mat {
	mat := gocv.NewMatWithSize(g.Height, g.Width, gocv.MatTypeCV32F)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			mat.SetFloatAt(y, x, g.At(x, y))
		}
	}
	return mat
}

// ImageToMat 将 image.Image 转换为 gocv.Mat (BGR)
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	// 转换为 BGR（OpenCV 默认格式）
	dst := gocv.NewMat()
	gocv.CvtColor(mat, &dst, gocv.ColorRGBToBGR)
	mat.Close()
	return dst, nil
}

// MatToImage 将 gocv.Mat 转换为 image.Image
func MatToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	return img, nil
}
