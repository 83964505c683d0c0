package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/zoeyai/facefinder/pkg/config"
	"github.com/zoeyai/facefinder/pkg/grpc"
	"github.com/zoeyai/facefinder/pkg/imageio"
	"github.com/zoeyai/facefinder/pkg/recognize"
	"github.com/zoeyai/facefinder/pkg/render"
	"github.com/zoeyai/facefinder/pkg/screen"
	"github.com/zoeyai/facefinder/pkg/vision/cv"
)

// run 执行一次识别并输出结果，返回是否找到
func run(cfg *config.Config, opts *cliOptions) (bool, error) {
	pattern, err := imageio.ReadFile(opts.pattern)
	if err != nil {
		return false, fmt.Errorf("读取模板图像失败: %w", err)
	}

	var (
		search  image.Image
		capture *screen.Capture
	)
	if opts.screen {
		if !screen.HasPermission() {
			// 未授权时截图为纯黑，匹配结果没有意义
			fmt.Println("[WARN] ========== 缺少权限 ==========")
			fmt.Printf("[WARN] 屏幕录制: 未授权，%s\n", screen.PermissionHint())
			fmt.Println("[WARN] 已打开系统设置")
			fmt.Println("[WARN] ==================================")
			screen.OpenPermissionSettings()
			return false, errors.New("缺少屏幕录制权限")
		}
		capture, err = screen.CaptureScreen()
		if err != nil {
			return false, err
		}
		search = capture.Image
	} else {
		search, err = imageio.ReadFile(opts.search)
		if err != nil {
			return false, fmt.Errorf("读取搜索图像失败: %w", err)
		}
	}

	var report *recognize.Report
	if cfg.ServerURL != "" {
		report, err = recognizeRemote(cfg, search, pattern)
		if err != nil {
			return false, err
		}
	} else {
		r := recognize.New(recognize.WithAnnotate(false))
		local := r.Recognize(recognize.Request{Search: search, Pattern: pattern, Lang: cfg.Language})
		report = &local
	}
	if !report.Success {
		return false, errors.New(report.Error)
	}

	printReport(report, capture, opts.jsonOut)

	if opts.out != "" {
		if err := saveAnnotated(opts.out, search, report); err != nil {
			return report.Result.Found, err
		}
		fmt.Printf("[INFO] 标注图已保存到 %s\n", opts.out)
	}

	if opts.verify {
		verify(search, pattern)
	}

	return report.Result.Found, nil
}

// recognizeRemote 通过 gRPC 在远程服务识别
func recognizeRemote(cfg *config.Config, search, pattern image.Image) (*recognize.Report, error) {
	var sBuf, pBuf bytes.Buffer
	if _, err := imageio.Encode(&sBuf, search, "png", 0); err != nil {
		return nil, err
	}
	if _, err := imageio.Encode(&pBuf, pattern, "png", 0); err != nil {
		return nil, err
	}

	clientConfig := grpc.DefaultConfig()
	clientConfig.MaxMessageBytes = int(cfg.MaxUploadBytes())
	client := grpc.NewClient(clientConfig)
	client.SetStatusCallback(func(status grpc.ClientStatus) {
		fmt.Printf("[STATUS] %s\n", status)
	})
	if err := client.Connect(cfg.ServerURL); err != nil {
		return nil, err
	}
	defer client.Disconnect()

	return client.Recognize(context.Background(), &grpc.RecognizeRequest{
		Search:      sBuf.Bytes(),
		SearchMIME:  "image/png",
		Pattern:     pBuf.Bytes(),
		PatternMIME: "image/png",
		Lang:        cfg.Language,
	})
}

// printReport 输出识别结果
func printReport(report *recognize.Report, capture *screen.Capture, asJSON bool) {
	if asJSON {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println(report.Message)
	r := report.Result
	if !r.Found {
		return
	}
	fmt.Printf("位置: (%.1f, %.1f)  半径: %.0f  置信度: %d%%  耗时: %.1fms\n",
		r.X, r.Y, r.Radius, r.Confidence, report.ElapsedMs)
	if capture != nil {
		sr := capture.AdjustResult(r)
		fmt.Printf("屏幕坐标: (%.0f, %.0f)\n", sr.X, sr.Y)
	}
}

// saveAnnotated 绘制标记和消息并保存
func saveAnnotated(path string, search image.Image, report *recognize.Report) error {
	out := render.Annotate(search, report.Result)
	if err := render.DrawLabel(out, report.Message); err != nil {
		return err
	}
	return imageio.WriteFile(path, out)
}

// verify 输出 OpenCV 交叉校验结果
func verify(search, pattern image.Image) {
	check, err := cv.CrossCheck(search, pattern)
	if err != nil {
		fmt.Printf("[WARN] 交叉校验失败: %v\n", err)
		return
	}
	fmt.Println("---------- OpenCV 交叉校验 ----------")
	fmt.Printf("粗网格位置: %v  SAD=%.0f  窗口数=%d\n", check.Details.BestOffset, check.Details.Score, check.Details.Windows)
	fmt.Printf("稠密位置:   %v  相关系数=%.3f (粗网格处 %.3f)\n", check.Dense, check.DenseScore, check.CoarseScore)
	fmt.Printf("距离: %.1fpx  步长: %d  一致: %v  耗时: %.0fms\n", check.Distance, check.Details.Step, check.Agrees, check.Time)
}
