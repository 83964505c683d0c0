package cv

import (
	"errors"
	"image"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/zoeyai/facefinder/pkg/imageio"
	"github.com/zoeyai/facefinder/pkg/vision"
)

func noiseImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

func cropImage(src *image.RGBA, r image.Rectangle) *image.RGBA {
	return src.SubImage(r).(*image.RGBA)
}

func TestCrossCheckExactCrop(t *testing.T) {
	search := noiseImage(200, 150, 11)
	pattern := cropImage(search, image.Rect(42, 30, 106, 78))

	check, err := CrossCheck(search, pattern)
	if err != nil {
		t.Fatalf("CrossCheck 失败: %v", err)
	}

	t.Logf("粗网格=%v 稠密=%v 相关=%.3f/%.3f 耗时=%.0fms",
		check.Details.BestOffset, check.Dense, check.CoarseScore, check.DenseScore, check.Time)

	if !check.Result.Found {
		t.Error("应找到匹配")
	}
	if check.Dense != image.Pt(42, 30) {
		t.Errorf("稠密位置错误: got %v, want (42, 30)", check.Dense)
	}
	if !check.Agrees || check.Distance != 0 {
		t.Errorf("应一致: distance=%.2f agrees=%v", check.Distance, check.Agrees)
	}
	if check.DenseScore < 0.99 || check.CoarseScore < 0.99 {
		t.Errorf("相关系数错误: dense=%.3f coarse=%.3f", check.DenseScore, check.CoarseScore)
	}
}

func TestCrossCheckTooLarge(t *testing.T) {
	search := noiseImage(50, 50, 1)
	pattern := noiseImage(80, 80, 2)

	_, err := CrossCheck(search, pattern)
	var sizeErr *SizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("应返回 SizeError, got %v", err)
	}
	if sizeErr.PatternSize != image.Pt(80, 80) {
		t.Errorf("模板尺寸错误: got %v", sizeErr.PatternSize)
	}
}

func TestCrossCheckInvalid(t *testing.T) {
	if _, err := CrossCheck(nil, noiseImage(10, 10, 1)); err == nil {
		t.Error("空搜索图应返回错误")
	}
}

func TestGrayToMat(t *testing.T) {
	g, err := vision.Grayscale(noiseImage(20, 10, 5), vision.MaxDimension)
	if err != nil {
		t.Fatalf("Grayscale 失败: %v", err)
	}

	mat := GrayToMat(g)
	defer mat.Close()

	if mat.Cols() != 20 || mat.Rows() != 10 || mat.Channels() != 1 {
		t.Fatalf("Mat 尺寸错误: %dx%d c=%d", mat.Cols(), mat.Rows(), mat.Channels())
	}
	if got, want := mat.GetFloatAt(3, 7), g.At(7, 3); got != want {
		t.Errorf("像素错误: got %v, want %v", got, want)
	}
}

func TestImageMatRoundTrip(t *testing.T) {
	src := noiseImage(32, 24, 9)

	mat, err := ImageToMat(src)
	if err != nil {
		t.Fatalf("ImageToMat 失败: %v", err)
	}
	defer mat.Close()

	img, err := MatToImage(mat)
	if err != nil {
		t.Fatalf("MatToImage 失败: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Fatalf("尺寸错误: got %v", img.Bounds())
	}

	r0, g0, b0, _ := src.At(5, 5).RGBA()
	r1, g1, b1, _ := img.At(5, 5).RGBA()
	if r0 != r1 || g0 != g1 || b0 != b1 {
		t.Errorf("像素错误: got (%d,%d,%d), want (%d,%d,%d)", r1>>8, g1>>8, b1>>8, r0>>8, g0>>8, b0>>8)
	}
}

func TestCrossCheckFiles(t *testing.T) {
	dir := t.TempDir()
	search := noiseImage(120, 90, 21)
	pattern := cropImage(search, image.Rect(30, 24, 70, 54))

	searchPath := filepath.Join(dir, "search.png")
	patternPath := filepath.Join(dir, "pattern.png")
	if err := imageio.WriteFile(searchPath, search); err != nil {
		t.Fatalf("写入搜索图失败: %v", err)
	}
	if err := imageio.WriteFile(patternPath, pattern); err != nil {
		t.Fatalf("写入模板图失败: %v", err)
	}

	check, err := CrossCheckFiles(searchPath, patternPath)
	if err != nil {
		t.Fatalf("CrossCheckFiles 失败: %v", err)
	}
	if check.Dense != image.Pt(30, 24) {
		t.Errorf("稠密位置错误: got %v, want (30, 24)", check.Dense)
	}

	if _, err := CrossCheckFiles(filepath.Join(dir, "missing.png"), patternPath); err == nil {
		t.Error("文件不存在应返回错误")
	}
}
